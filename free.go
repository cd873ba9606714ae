package lfmalloc

// reservedCredits returns how many blocks of desc are currently held as
// active-pointer credits, 0 unless desc is its heap's active
// superblock right now. Used only to decide the EMPTY transition in
// freeBlock; a stale read here just means the CAS below is retried
// against a fresher anchor, never a correctness problem.
func reservedCredits(desc *Descriptor) uint32 {
	if desc.heap == nil {
		return 0
	}
	active := desc.heap.loadActive()
	if active.desc() != desc {
		return 0
	}
	return uint32(active.credits())
}

// freeBlock implements the free path for a small allocation: push the
// block back onto its superblock's internal free stack via a
// CAS loop on the anchor, then apply the state-transition post-actions.
func freeBlock(desc *Descriptor, ptr uintptr) {
	idx := desc.blockIndex(ptr)
	for {
		old := desc.loadAnchor()
		desc.writeLink(idx, old.avail)

		new := old
		new.avail = idx
		new.tag = nextTag(old.tag)

		reserved := reservedCredits(desc)
		newCount := old.count + 1
		wasFull := old.state == sbFull
		if newCount+reserved >= desc.maxcount {
			new.state = sbEmpty
			new.count = old.count
		} else {
			new.count = newCount
			if wasFull {
				new.state = sbPartial
			}
		}

		if !desc.casAnchor(old, new) {
			continue
		}

		heap := desc.heap
		switch {
		case new.state == sbEmpty:
			unregisterRange(desc.superblock, heap.class.sbSize)
			PageFree(desc.superblock, heap.class.sbSize)
			descRetire(desc)
			heap.liveSuperblocks.Add(-1)
		case new.state == sbPartial && wasFull:
			heap.pushPartial(desc)
		}
		heap.liveBlocks.Add(-1)
		return
	}
}

// Free releases a pointer previously returned by Allocate/Calloc/
// Reallocate/AlignedAllocate. Freeing nil is a no-op. Freeing anything
// else is undefined behavior — the caller is trusted.
func Free(ptr uintptr) {
	if ptr == 0 {
		return
	}
	desc := GetPageInfo(ptr)
	if desc == nil {
		return
	}
	if desc.isLarge() {
		freeLarge(desc)
		return
	}
	freeBlock(desc, ptr)
}
