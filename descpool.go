package lfmalloc

import "sync/atomic"
import "unsafe"

// freeListHead is the global lock-free free list of retired
// Descriptors. A tagged pointer (see tagptr.go)
// defeats ABA on pops — cheaply, since descriptor permanence means the
// pointer component can never be stale in the hazard-pointer sense,
// only the counter needs to change across a push/pop race.
var freeListHead atomic.Uint64

func loadFreeList() tagptr {
	return tagptr(freeListHead.Load())
}

func pushFree(desc *Descriptor) {
	for {
		old := loadFreeList()
		desc.storeNextFree(old)
		new := old.next(desc)
		if freeListHead.CompareAndSwap(uint64(old), uint64(new)) {
			return
		}
	}
}

func popFree() *Descriptor {
	for {
		old := loadFreeList()
		desc := old.desc()
		if desc == nil {
			return nil
		}
		next := desc.loadNextFree().desc()
		new := packTagptr(next, old.counter()+1)
		if freeListHead.CompareAndSwap(uint64(old), uint64(new)) {
			desc.storeNextFree(tagptr(0))
			return desc
		}
	}
}

// descSlotSize is one Descriptor's footprint in the pool, rounded up to
// Cacheline so every Descriptor's address has its low bits free for the
// active-pointer credit counter (activeptr.go) and the tagptr ABA
// counter (tagptr.go).
var descSlotSize = roundup(int64(unsafe.Sizeof(Descriptor{})), Cacheline)

func roundup(n, align int64) int64 {
	if rem := n % align; rem != 0 {
		return n + (align - rem)
	}
	return n
}

// descAlloc pops a Descriptor from the global free list, refilling the
// pool from the OS in DescPoolPages-sized batches on empty. Descriptor
// memory obtained this way is never returned to the OS
// — only the superblock it comes to describe is.
func descAlloc(pages int64) *Descriptor {
	if desc := popFree(); desc != nil {
		return desc
	}
	return newDescBatch(pages)
}

// descRetire pushes desc back onto the global free list.
func descRetire(desc *Descriptor) {
	desc.anchor.Store(0)
	desc.nextPartial.Store(0)
	desc.superblock, desc.heap, desc.userptr = 0, nil, 0
	desc.blockSize, desc.maxcount = 0, 0
	pushFree(desc)
}

// newDescBatch obtains a page-aligned batch of Descriptor slots from
// the OS, threads them into a singly-linked list via nextFree, pushes
// all but the head onto the global free list, and returns the head to
// the caller — a classic chunked free-list refill.
func newDescBatch(pages int64) *Descriptor {
	size := pages * PageSize
	addr, err := PageAlloc(size)
	if err != nil {
		return nil
	}

	n := size / descSlotSize
	descs := make([]*Descriptor, n)
	for i := int64(0); i < n; i++ {
		// mmap hands back zeroed pages, so each slot already starts as
		// the Descriptor zero value.
		descs[i] = (*Descriptor)(unsafe.Pointer(addr + uintptr(i*descSlotSize)))
	}
	for i := int64(1); i < n; i++ {
		descs[i-1].storeNextFree(packTagptr(descs[i], 0))
	}

	if n > 1 {
		pushBatch(descs[1], descs[n-1])
	}
	return descs[0]
}

// pushBatch pushes an already-linked chain [head..tail] onto the global
// free list in one CAS, the way a multi-descriptor refill avoids one
// CAS per descriptor.
func pushBatch(head, tail *Descriptor) {
	for {
		old := loadFreeList()
		tail.storeNextFree(old)
		new := old.next(head)
		if freeListHead.CompareAndSwap(uint64(old), uint64(new)) {
			return
		}
	}
}
