package lfmalloc

import "sync/atomic"

// Descriptor is the per-superblock metadata record. Exactly one
// Descriptor exists per superblock. Descriptors are carved
// Cacheline-aligned out of OS pages by the descriptor pool (descpool.go)
// and are never returned to the OS — only retired back onto the global
// free list — which is what lets a stale reader's pointer to a
// Descriptor remain a safe read target forever; the anchor's tag and
// state reveal any recycling underneath it.
type Descriptor struct {
	anchor atomic.Uint64 // packed anchor word, see anchor.go

	nextFree    atomic.Uint64 // tagptr into the global descriptor free list
	nextPartial atomic.Uint64 // tagptr into heap.partial

	superblock uintptr        // base address of the managed superblock
	heap       *sizeClassHeap // nil => large allocation, no size-class heap
	blockSize  int64          // payload size of one block
	maxcount   uint32         // number of blocks in the superblock

	// userptr is set only for a large, aligned allocation whose
	// caller-visible pointer differs from superblock (the region's raw
	// base). A second page-map registration lives at userptr's page so
	// Free can resolve the aligned pointer straight back to this
	// descriptor.
	userptr uintptr
}

func (d *Descriptor) loadAnchor() anchor {
	return unpackAnchor(d.anchor.Load())
}

func (d *Descriptor) casAnchor(old, new anchor) bool {
	return d.anchor.CompareAndSwap(old.pack(), new.pack())
}

func (d *Descriptor) storeAnchor(a anchor) {
	d.anchor.Store(a.pack())
}

func (d *Descriptor) loadNextFree() tagptr {
	return tagptr(d.nextFree.Load())
}

func (d *Descriptor) casNextFree(old, new tagptr) bool {
	return d.nextFree.CompareAndSwap(uint64(old), uint64(new))
}

func (d *Descriptor) storeNextFree(t tagptr) {
	d.nextFree.Store(uint64(t))
}

func (d *Descriptor) loadNextPartial() tagptr {
	return tagptr(d.nextPartial.Load())
}

func (d *Descriptor) casNextPartial(old, new tagptr) bool {
	return d.nextPartial.CompareAndSwap(uint64(old), uint64(new))
}

func (d *Descriptor) storeNextPartial(t tagptr) {
	d.nextPartial.Store(uint64(t))
}

// blockAt returns the address of the block at the given index within
// this descriptor's superblock.
func (d *Descriptor) blockAt(idx uint32) uintptr {
	return d.superblock + uintptr(int64(idx)*d.blockSize)
}

// blockIndex is the inverse of blockAt.
func (d *Descriptor) blockIndex(ptr uintptr) uint32 {
	return uint32((int64(ptr) - int64(d.superblock)) / d.blockSize)
}

// isLarge reports whether this descriptor backs a large allocation
// (bypassing the size-class heaps entirely).
func (d *Descriptor) isLarge() bool {
	return d.heap == nil
}
