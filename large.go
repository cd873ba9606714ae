package lfmalloc

// allocLarge bypasses the size-class heaps entirely, obtaining a
// dedicated multi-page OS region and describing it
// with a descriptor whose heap is nil.
func allocLarge(size int64) uintptr {
	pages := (size + PageSize - 1) / PageSize
	regionSize := pages * PageSize

	desc := descAlloc(DescPoolPages)
	if desc == nil {
		return 0
	}
	base, err := PageAlloc(regionSize)
	if err != nil {
		debugf("lfmalloc: large alloc of %v bytes failed: %v\n", regionSize, err)
		descRetire(desc)
		return 0
	}

	initblock(base, regionSize)

	desc.superblock = base
	desc.userptr = base
	desc.heap = nil
	desc.blockSize = regionSize
	desc.maxcount = 1
	desc.storeAnchor(anchor{state: sbFull, avail: availNil, count: 0, tag: 0})

	SetPageInfo(base, desc)
	return base
}

// allocLargeAligned implements the aligned-allocation path for requests
// above the largest small size class. This fixes the reference
// implementation's known bug (it over-allocated
// max(alignment,size)*2 and recursed into a hypothetical nested malloc):
// here the region is size+alignment bytes rounded up to whole pages, carved from this
// allocator's own page-allocation primitive, and the aligned pointer
// gets its own page-map registration so Free resolves it directly.
func allocLargeAligned(alignment, size int64) uintptr {
	pages := (size + alignment + PageSize - 1) / PageSize
	regionSize := pages * PageSize

	desc := descAlloc(DescPoolPages)
	if desc == nil {
		return 0
	}
	base, err := PageAlloc(regionSize)
	if err != nil {
		descRetire(desc)
		return 0
	}

	aligned := alignUp(base, uintptr(alignment))

	desc.superblock = base
	desc.userptr = aligned
	desc.heap = nil
	desc.blockSize = regionSize
	desc.maxcount = 1
	desc.storeAnchor(anchor{state: sbFull, avail: availNil, count: 0, tag: 0})

	SetPageInfo(base, desc)
	if aligned != base {
		SetPageInfo(aligned, desc)
	}
	return aligned
}

// freeLarge releases a large (or large-aligned) allocation: unregister
// its page-map entry or entries, return the region to the OS, retire
// the descriptor.
func freeLarge(desc *Descriptor) {
	ClearPageInfo(desc.superblock)
	if desc.userptr != desc.superblock {
		ClearPageInfo(desc.userptr)
	}
	PageFree(desc.superblock, desc.blockSize)
	descRetire(desc)
}

func alignUp(addr uintptr, alignment uintptr) uintptr {
	return (addr + alignment - 1) &^ (alignment - 1)
}
