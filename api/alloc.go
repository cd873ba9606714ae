package api

import "unsafe"

// Allocator is the heap-style contract a custom memory manager must
// satisfy: the conventional allocate/free/calloc/realloc/memalign
// surface, plus accounting. lfmalloc.Allocator implements it;
// applications wanting to swap in a different lock-free allocator for
// testing can code against this interface instead of the concrete
// type.
type Allocator interface {
	// Allocate n bytes. Returns nil on OOM. A small block sits at a
	// multiple of its size class's block size from a page-aligned
	// superblock, and block sizes are multiples of 8, so 16-byte
	// alignment holds only in classes whose block size is a multiple of
	// 16. Large allocations are page-aligned.
	Allocate(n int64) unsafe.Pointer

	// Free a pointer previously returned by this Allocator. Freeing
	// nil is a no-op.
	Free(ptr unsafe.Pointer)

	// Calloc m*n zero-filled bytes. Returns nil on overflow or OOM.
	Calloc(m, n int64) unsafe.Pointer

	// Reallocate ptr to hold n bytes, preserving min(old,n) bytes. On
	// OOM returns nil and leaves ptr valid and unchanged.
	Reallocate(ptr unsafe.Pointer, n int64) unsafe.Pointer

	// AlignedAllocate n bytes aligned to the power-of-2 `alignment`.
	AlignedAllocate(alignment, n int64) unsafe.Pointer

	// UsableSize returns the usable size of a live allocation, which
	// may exceed the size requested at allocation.
	UsableSize(ptr unsafe.Pointer) int64

	// Info reports coarse memory accounting for this allocator.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization reports, per size class, the percentage of that
	// class's superblock capacity currently allocated.
	Utilization() (sizes []int64, percents []float64)

	// Release returns every superblock this allocator currently holds
	// back to the OS. Only safe once every outstanding pointer has
	// been freed.
	Release()
}
