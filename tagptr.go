package lfmalloc

import "unsafe"

// tagPtrAddrBits is how many low bits of a 64-bit word this allocator
// spends on the pointer itself. amd64 and arm64 userspace addresses fit
// in 48 bits, so the remaining high bits are free for an ABA counter —
// simulating a double-word CAS by stealing unused address-space bits.
const tagPtrAddrBits = 48
const tagPtrAddrMask = uint64(1)<<tagPtrAddrBits - 1
const tagPtrCountBits = 64 - tagPtrAddrBits
const tagPtrCountMask = uint64(1)<<tagPtrCountBits - 1

// tagptr packs a *Descriptor and a monotonic counter into one uint64,
// CAS'd as a single word to simulate the double-word (pointer, ABA
// counter) CAS needed by a heap's partial-list head, a descriptor's
// nextFree/nextPartial links, and the global descriptor free-list head.
// Descriptors are permanent (never freed, only recycled), so the
// counter only has to defeat ABA within one realistic contention
// window, not across the address space's entire lifetime.
type tagptr uint64

// packTagptr builds a tagptr from a descriptor pointer and counter. A
// nil desc packs to the zero tagptr.
func packTagptr(desc *Descriptor, counter uint64) tagptr {
	addr := uint64(uintptr(unsafe.Pointer(desc))) & tagPtrAddrMask
	return tagptr(addr | (counter&tagPtrCountMask)<<tagPtrAddrBits)
}

func (t tagptr) desc() *Descriptor {
	addr := uintptr(uint64(t) & tagPtrAddrMask)
	if addr == 0 {
		return nil
	}
	return (*Descriptor)(unsafe.Pointer(addr))
}

func (t tagptr) counter() uint64 {
	return uint64(t) >> tagPtrAddrBits & tagPtrCountMask
}

// next returns the tagptr that should replace t after one more push/pop,
// bumping the ABA counter and swapping in a new descriptor pointer (nil
// when popping the list to empty).
func (t tagptr) next(desc *Descriptor) tagptr {
	return packTagptr(desc, t.counter()+1)
}

func (t tagptr) isNil() bool {
	return t.desc() == nil
}
