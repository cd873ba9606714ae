package lfmalloc

import "sync/atomic"

// Page map granularity and fan-out. Two tiers, the idiomatic Go
// rendering of the same arena/summary tiering the Go runtime's own page
// allocator uses: a fixed top-level array of lazily-installed shards,
// each shard a flat array of one atomic Descriptor pointer per page.
//
// pmPageShift converts a byte address to a page number. pmL1Bits picks
// the top-level shard; the remaining low bits of the page number (pmL2Bits)
// index within that shard. Together they cover a 48-bit address space,
// which is what amd64/arm64 userspace actually uses.
const pmPageShift = 12 // log2(PageSize)
const pmL1Bits = 20
const pmL2Bits = 16
const pmL2Mask = uint64(1)<<pmL2Bits - 1
const pmL1Mask = uint64(1)<<pmL1Bits - 1

type pmShard struct {
	slots [1 << pmL2Bits]atomic.Pointer[Descriptor]
}

// pmTop is the page map's top-level array. Global and fixed-size: no
// lock protects installing a shard, only a single CAS per shard (see
// pmShardFor) — lock-free, single-CAS shard installation.
var pmTop [1 << pmL1Bits]atomic.Pointer[pmShard]

func pmSplit(addr uintptr) (l1, l2 uint64) {
	page := uint64(addr) >> pmPageShift
	return page >> pmL2Bits & pmL1Mask, page & pmL2Mask
}

// pmShardFor returns the shard for l1, lazily installing one if absent.
// A losing installer discards its speculative shard and rereads the
// winner's — the shard itself carries no state yet, so losing the race
// costs only one discarded allocation, not correctness.
func pmShardFor(l1 uint64) *pmShard {
	shard := pmTop[l1].Load()
	if shard != nil {
		return shard
	}
	fresh := &pmShard{}
	if pmTop[l1].CompareAndSwap(nil, fresh) {
		return fresh
	}
	return pmTop[l1].Load()
}

// SetPageInfo registers addr's page as owned by desc.
func SetPageInfo(addr uintptr, desc *Descriptor) {
	l1, l2 := pmSplit(addr)
	pmShardFor(l1).slots[l2].Store(desc)
}

// GetPageInfo returns the descriptor owning addr's page, or nil.
func GetPageInfo(addr uintptr) *Descriptor {
	l1, l2 := pmSplit(addr)
	shard := pmTop[l1].Load()
	if shard == nil {
		return nil
	}
	return shard.slots[l2].Load()
}

// ClearPageInfo unregisters addr's page.
func ClearPageInfo(addr uintptr) {
	l1, l2 := pmSplit(addr)
	if shard := pmTop[l1].Load(); shard != nil {
		shard.slots[l2].Store(nil)
	}
}

// registerRange sets the page map for every page in [base, base+size).
func registerRange(base uintptr, size int64, desc *Descriptor) {
	for off := int64(0); off < size; off += PageSize {
		SetPageInfo(base+uintptr(off), desc)
	}
}

// unregisterRange clears the page map for every page in [base, base+size).
func unregisterRange(base uintptr, size int64) {
	for off := int64(0); off < size; off += PageSize {
		ClearPageInfo(base + uintptr(off))
	}
}
