package lfmalloc

import "sync/atomic"

// sizeClassHeap is the per-size-class heap: one atomic
// "active" superblock pointer (descriptor + credit count packed into
// its low bits, see activeptr.go) and one atomic tagged-pointer head of
// the partial-superblock list (see tagptr.go). A heap never points at
// specific "full" descriptors — those are discoverable only through the
// page map until their first free.
type sizeClassHeap struct {
	class   sizeClass
	active  atomic.Uint64 // activeptr
	partial atomic.Uint64 // tagptr

	// Accounting only, consulted by stats.go. Neither counter gates
	// correctness of the allocate/free paths.
	liveSuperblocks atomic.Int64
	liveBlocks      atomic.Int64
}

func (h *sizeClassHeap) loadActive() activeptr {
	return activeptr(h.active.Load())
}

func (h *sizeClassHeap) casActive(old, new activeptr) bool {
	return h.active.CompareAndSwap(uint64(old), uint64(new))
}

func (h *sizeClassHeap) loadPartial() tagptr {
	return tagptr(h.partial.Load())
}

func (h *sizeClassHeap) casPartial(old, new tagptr) bool {
	return h.partial.CompareAndSwap(uint64(old), uint64(new))
}

// pushPartial pushes desc onto the head of the heap's partial list via
// a tagged-pointer CAS loop, threading the list through desc's own
// nextPartial link.
func (h *sizeClassHeap) pushPartial(desc *Descriptor) {
	for {
		old := h.loadPartial()
		desc.storeNextPartial(old)
		new := old.next(desc)
		if h.casPartial(old, new) {
			return
		}
	}
}

// popPartial pops the head of the heap's partial list, or returns nil
// if the list is empty.
func (h *sizeClassHeap) popPartial() *Descriptor {
	for {
		old := h.loadPartial()
		desc := old.desc()
		if desc == nil {
			return nil
		}
		next := desc.loadNextPartial().desc()
		new := packTagptr(next, old.counter()+1)
		if h.casPartial(old, new) {
			desc.storeNextPartial(tagptr(0))
			return desc
		}
	}
}
