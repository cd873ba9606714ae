package lfmalloc

import gohumanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/lfmalloc/lib"

// Info implements api.Allocator: coarse memory accounting across every
// size-class heap. capacity and heap both count bytes held in live
// superblocks (they coincide here — this allocator has no separate
// arena-reservation step); alloc counts bytes currently handed to
// callers; overhead is the difference.
//
// Superblocks reachable only through the page map (state FULL) are not
// separately enumerable — by definition every block in them is
// allocated, so they contribute to alloc via liveBlocks without needing
// their own traversal.
func (a *Allocator) Info() (capacity, heap, alloc, overhead int64) {
	for _, h := range a.heaps {
		sb := h.liveSuperblocks.Load()
		capacity += sb * h.class.sbSize
		heap += sb * h.class.sbSize
		alloc += h.liveBlocks.Load() * h.class.blockSize
	}
	overhead = capacity - alloc
	return
}

// Utilization implements api.Allocator: per size class, the percentage
// of that class's live superblock capacity currently allocated. Size
// classes with no live superblocks are omitted.
func (a *Allocator) Utilization() (sizes []int64, percents []float64) {
	for _, h := range a.heaps {
		capacity := h.liveSuperblocks.Load() * h.class.sbSize
		if capacity == 0 {
			continue
		}
		allocated := h.liveBlocks.Load() * h.class.blockSize
		sizes = append(sizes, h.class.blockSize)
		percents = append(percents, float64(allocated)/float64(capacity)*100)
	}
	return
}

// Release returns every superblock currently held active or partial by
// this Allocator back to the OS. The caller must ensure every pointer
// this Allocator handed out has already been freed — freeing the last
// block of a superblock already releases it through the normal free
// path (free.go); Release only mops up superblocks sitting active or
// partial with spare, never-allocated capacity.
func (a *Allocator) Release() {
	for _, h := range a.heaps {
		if desc := h.loadActive().desc(); desc != nil {
			h.active.Store(0)
			releaseSuperblock(h, desc)
		}
		for {
			desc := h.popPartial()
			if desc == nil {
				break
			}
			releaseSuperblock(h, desc)
		}
	}
}

func releaseSuperblock(h *sizeClassHeap, desc *Descriptor) {
	unregisterRange(desc.superblock, h.class.sbSize)
	PageFree(desc.superblock, h.class.sbSize)
	descRetire(desc)
	h.liveSuperblocks.Add(-1)
}

// Prettystats renders Info/Utilization as a human-readable summary, the
// way gostore's llrb package logs byte counts through go-humanize
// rather than raw integers.
func (a *Allocator) Prettystats() string {
	capacity, heapsz, alloc, overhead := a.Info()
	sizes, percents := a.Utilization()

	stats := map[string]interface{}{
		"capacity": gohumanize.Bytes(uint64(capacity)),
		"heap":     gohumanize.Bytes(uint64(heapsz)),
		"alloc":    gohumanize.Bytes(uint64(alloc)),
		"overhead": gohumanize.Bytes(uint64(overhead)),
	}
	classes := make(map[string]float64)
	for i, size := range sizes {
		classes[gohumanize.Bytes(uint64(size))] = percents[i]
	}
	stats["utilization"] = classes
	return lib.Prettystats(stats, true)
}
