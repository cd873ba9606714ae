package lfmalloc

import "unsafe"

// activeCreditsBits is how many low bits of a Cacheline-aligned
// Descriptor pointer are free to steal for the active superblock's
// credit counter. Cacheline is 64 bytes, so the low 6 bits of any
// Descriptor address are always zero.
const activeCreditsBits = 6
const activeCreditsMask = uint64(1)<<activeCreditsBits - 1

func init() {
	if CreditsMax != activeCreditsMask {
		panic("CreditsMax must match the low bits stolen from a Cacheline-aligned pointer")
	}
}

// activeptr packs a heap's active Descriptor pointer together with its
// pre-reserved credit count (0..CreditsMax) into one atomically-CASed
// word. The zero value (nil descriptor, zero credits) means "no active
// superblock".
type activeptr uint64

// packActive builds an activeptr. desc must be Cacheline-aligned; credits
// must be <= CreditsMax.
func packActive(desc *Descriptor, credits uint64) activeptr {
	addr := uint64(uintptr(unsafe.Pointer(desc)))
	if addr&activeCreditsMask != 0 {
		panic("descriptor not cacheline aligned")
	}
	if credits > CreditsMax {
		panic("credits exceeds CreditsMax")
	}
	return activeptr(addr | credits)
}

func (a activeptr) desc() *Descriptor {
	addr := uintptr(uint64(a) &^ activeCreditsMask)
	if addr == 0 {
		return nil
	}
	return (*Descriptor)(unsafe.Pointer(addr))
}

func (a activeptr) credits() uint64 {
	return uint64(a) & activeCreditsMask
}

func (a activeptr) isNil() bool {
	return a.desc() == nil
}

// withCredits returns an activeptr over the same descriptor with a
// different credit count.
func (a activeptr) withCredits(credits uint64) activeptr {
	return packActive(a.desc(), credits)
}
