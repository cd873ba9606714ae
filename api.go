package lfmalloc

import "unsafe"

import "github.com/bnclabs/lfmalloc/api"
import "github.com/bnclabs/lfmalloc/lib"

var _ api.Allocator = (*Allocator)(nil)

// Allocator is one configured instance of the lock-free allocator: a
// size-class table and one sizeClassHeap per class. The descriptor pool
// and page map backing every Allocator are process-wide globals (see
// descpool.go, pagemap.go) — the allocator is process-local, and Free
// resolves any live pointer without needing to know which Allocator
// produced it.
type Allocator struct {
	setts         Settings
	classes       []sizeClass
	heaps         []*sizeClassHeap
	descPoolPages int64
}

// NewAllocator builds an Allocator from setts, falling back to
// DefaultSettings for any key setts doesn't override.
func NewAllocator(setts Settings) *Allocator {
	merged := DefaultSettings().Mixin(setts)
	validateSettings(merged)

	classes := sizeClasses(
		merged.Int64("minblock"), merged.Int64("maxblock"), merged.Int64("sbsize"))
	heaps := make([]*sizeClassHeap, len(classes))
	for i, class := range classes {
		heaps[i] = &sizeClassHeap{class: class}
	}
	infof("lfmalloc: %v size classes, sbsize %v\n", len(classes), merged.Int64("sbsize"))
	return &Allocator{
		setts:         merged,
		classes:       classes,
		heaps:         heaps,
		descPoolPages: merged.Int64("descpool.pages"),
	}
}

// Allocate implements api.Allocator.
func (a *Allocator) Allocate(n int64) unsafe.Pointer {
	if n <= 0 {
		n = 1 // a zero-size request is served as a freeable 1-byte small block.
	}
	idx := lookupSizeClass(a.classes, n)
	var ptr uintptr
	if idx < 0 {
		ptr = allocLarge(n)
	} else {
		ptr = allocSmall(a.heaps[idx], a.descPoolPages)
	}
	if ptr == 0 {
		return nil
	}
	return unsafe.Pointer(ptr)
}

// Free implements api.Allocator.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	Free(uintptr(ptr))
}

// Calloc implements api.Allocator, with the standard libc-style
// overflow check preserved.
func (a *Allocator) Calloc(m, n int64) unsafe.Pointer {
	if m != 0 && (m*n)/m != n {
		return nil
	}
	ptr := a.Allocate(m * n)
	if ptr == nil {
		return nil
	}
	zerofill(ptr, a.UsableSize(ptr))
	return ptr
}

// Reallocate implements api.Allocator: allocate new, copy min(old,n),
// free old — with the OOM case short-circuited before the old pointer
// is touched.
func (a *Allocator) Reallocate(ptr unsafe.Pointer, n int64) unsafe.Pointer {
	if ptr == nil {
		return a.Allocate(n)
	}
	oldSize := a.UsableSize(ptr)
	newptr := a.Allocate(n)
	if newptr == nil {
		return nil
	}
	copySize := oldSize
	if n < copySize {
		copySize = n
	}
	lib.Memcpy(newptr, ptr, int(copySize))
	a.Free(ptr)
	return newptr
}

// AlignedAllocate implements api.Allocator. When a size class's block
// size is already a multiple of the requested alignment and that
// alignment is no coarser than a page (every superblock is
// page-aligned by construction), the normal small-allocation path
// already returns a suitably aligned pointer; otherwise it falls back
// to the dedicated large-aligned path (large.go), which avoids the
// naive over-allocation a pointer-aligning implementation could fall
// into.
func (a *Allocator) AlignedAllocate(alignment, n int64) unsafe.Pointer {
	if validateAlignment(alignment) != nil {
		return nil
	}

	idx := lookupSizeClass(a.classes, n)
	if idx >= 0 && alignment <= PageSize && a.classes[idx].blockSize%alignment == 0 {
		ptr := allocSmall(a.heaps[idx], a.descPoolPages)
		if ptr == 0 {
			return nil
		}
		return unsafe.Pointer(ptr)
	}

	ptr := allocLargeAligned(alignment, n)
	if ptr == 0 {
		return nil
	}
	return unsafe.Pointer(ptr)
}

// Valloc allocates n bytes aligned to PageSize.
func (a *Allocator) Valloc(n int64) unsafe.Pointer {
	return a.AlignedAllocate(PageSize, n)
}

// Pvalloc allocates, page-aligned, ceil(n/PageSize)*PageSize bytes.
func (a *Allocator) Pvalloc(n int64) unsafe.Pointer {
	return a.AlignedAllocate(PageSize, roundup(n, PageSize))
}

// UsableSize implements api.Allocator.
func (a *Allocator) UsableSize(ptr unsafe.Pointer) int64 {
	desc := GetPageInfo(uintptr(ptr))
	if desc == nil {
		return 0
	}
	if desc.isLarge() {
		// an aligned large allocation starts userptr-superblock bytes
		// into its region.
		return desc.blockSize - int64(desc.userptr-desc.superblock)
	}
	return desc.blockSize
}

// ThreadInit is a no-op hook kept only so a caller wiring this
// allocator in as a libc replacement has a per-thread initialization
// point to call. This design carries no per-thread state (this
// allocator has no thread-cache layer).
func ThreadInit() {}

// ThreadFinalize mirrors ThreadInit; also a no-op.
func ThreadFinalize() {}

func zerofill(ptr unsafe.Pointer, n int64) {
	b := unsafe.Slice((*byte)(ptr), int(n))
	for i := range b {
		b[i] = 0
	}
}
