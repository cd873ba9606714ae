package lfmalloc

import "unsafe"

// readLink reads the free-stack "next" index out of the first word of
// the block at idx. The internal free stack is intrusive: its nodes
// live in the free blocks themselves.
func (d *Descriptor) readLink(idx uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(d.blockAt(idx)))
}

// writeLink writes the free-stack "next" index into the first word of
// the block at idx.
func (d *Descriptor) writeLink(idx uint32, next uint32) {
	*(*uint32)(unsafe.Pointer(d.blockAt(idx))) = next
}

// popBlock pops one block off desc's internal free stack via a CAS loop
// on the anchor, per the shared pattern used by MallocFromActive's
// second step and MallocFromPartial's block-reservation step. drain is
// how many additional blocks (beyond the one returned) to convert from
// count into fresh active credits — 0 outside the "last credit" case.
func popBlock(desc *Descriptor, drain uint32) (ptr uintptr, drained uint32, ok bool) {
	for {
		old := desc.loadAnchor()
		if old.avail == availNil {
			return 0, 0, false
		}
		idx := old.avail
		next := desc.readLink(idx)

		d := drain
		if d > old.count {
			d = old.count
		}
		new := old
		new.avail = next
		new.tag = nextTag(old.tag)
		new.count = old.count - d
		if drain > 0 && old.count == 0 {
			new.state = sbFull
		}
		if desc.casAnchor(old, new) {
			return desc.blockAt(idx), d, true
		}
	}
}

// mallocFromActive is the fast allocation path: reserve a credit from
// the heap's active word, then pop a block off that superblock's
// internal free stack.
func mallocFromActive(heap *sizeClassHeap) (uintptr, bool) {
	var desc *Descriptor
	for {
		old := heap.loadActive()
		desc = old.desc()
		if desc == nil {
			return 0, false
		}
		if old.credits() == 0 {
			if heap.casActive(old, activeptr(0)) {
				break
			}
			continue
		}
		new := old.withCredits(old.credits() - 1)
		if heap.casActive(old, new) {
			return popReserved(desc)
		}
	}

	// Last credit: this thread claimed it by zeroing active. It still
	// owns one reserved block and, if the superblock has spare count,
	// must refill fresh credits and re-publish them via updateActive.
	ptr, drained, ok := popBlock(desc, uint32(CreditsMax))
	if !ok {
		return 0, false
	}
	if drained > 0 {
		updateActive(heap, desc, uint64(drained))
	}
	return ptr, true
}

// popReserved pops the block this thread already reserved credits for
// — no draining, since credits were already accounted for.
func popReserved(desc *Descriptor) (uintptr, bool) {
	ptr, _, ok := popBlock(desc, 0)
	return ptr, ok
}

// updateActive tries to publish desc as the heap's active superblock
// with one fewer credit than drained (the caller already consumed one
// block). On a losing CAS, the drained credits are returned to the
// superblock's count and desc is pushed onto the partial list.
func updateActive(heap *sizeClassHeap, desc *Descriptor, credits uint64) {
	new := packActive(desc, credits-1)
	if heap.casActive(activeptr(0), new) {
		return
	}
	for {
		old := desc.loadAnchor()
		n := old
		n.count += uint32(credits)
		n.state = sbPartial
		n.tag = nextTag(old.tag)
		if desc.casAnchor(old, n) {
			break
		}
	}
	heap.pushPartial(desc)
}

// mallocFromPartial implements the partial-list allocation path: pop a
// superblock off the heap's partial list and reserve one block plus up
// to CreditsMax credits from it.
func mallocFromPartial(heap *sizeClassHeap) (uintptr, bool) {
	for {
		desc := heap.popPartial()
		if desc == nil {
			return 0, false
		}

		var credits uint32
		var idx uint32
		ok := false
		for !ok {
			old := desc.loadAnchor()
			if old.state == sbEmpty {
				descRetire(desc)
				break
			}
			credits = old.count - 1
			if credits > uint32(CreditsMax) {
				credits = uint32(CreditsMax)
			}
			idx = old.avail
			next := desc.readLink(idx)

			new := old
			new.avail = next
			new.tag = nextTag(old.tag)
			new.count = old.count - 1 - credits
			if credits > 0 {
				new.state = sbActive
			} else {
				new.state = sbFull
			}
			if desc.casAnchor(old, new) {
				ok = true
			}
		}
		if !ok {
			continue
		}

		ptr := desc.blockAt(idx)
		if credits > 0 {
			updateActive(heap, desc, uint64(credits)+1)
		}
		return ptr, true
	}
}

// mallocFromNewSB installs a
// brand-new superblock as the heap's active one.
func mallocFromNewSB(heap *sizeClassHeap, descPoolPages int64) (uintptr, bool) {
	desc := descAlloc(descPoolPages)
	if desc == nil {
		return 0, false
	}

	sbsize := heap.class.sbSize
	base, err := PageAlloc(sbsize)
	if err != nil {
		descRetire(desc)
		return 0, false
	}

	initblock(base, sbsize)

	desc.superblock = base
	desc.heap = heap
	desc.blockSize = heap.class.blockSize
	desc.maxcount = heap.class.maxcount

	maxcount := desc.maxcount
	for i := uint32(1); i < maxcount-1; i++ {
		desc.writeLink(i, i+1)
	}
	if maxcount > 1 {
		desc.writeLink(maxcount-1, availNil)
	}

	credits := maxcount - 1
	if credits > uint32(CreditsMax) {
		credits = uint32(CreditsMax)
	}

	avail := availNil
	if maxcount > 1 {
		avail = 1
	}
	desc.storeAnchor(anchor{
		state: sbActive,
		avail: avail,
		count: maxcount - 1 - credits,
		tag:   0,
	})

	registerRange(base, sbsize, desc)

	newActive := packActive(desc, uint64(credits))
	if heap.casActive(activeptr(0), newActive) {
		heap.liveSuperblocks.Add(1)
		return base, true
	}

	unregisterRange(base, sbsize)
	PageFree(base, sbsize)
	descRetire(desc)
	return 0, false
}

// allocSmall is the top-level retry loop: try active,
// then partial, then install a new superblock, looping until one
// succeeds or the OS refuses a new superblock.
func allocSmall(heap *sizeClassHeap, descPoolPages int64) uintptr {
	var ptr uintptr
	var ok bool
	for {
		if ptr, ok = mallocFromActive(heap); ok {
			break
		}
		if ptr, ok = mallocFromPartial(heap); ok {
			break
		}
		if ptr, ok = mallocFromNewSB(heap, descPoolPages); ok {
			break
		}
		return 0 // new-superblock install failed: OOM
	}
	heap.liveBlocks.Add(1)
	return ptr
}
