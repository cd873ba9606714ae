package lfmalloc

import "unsafe"
import "golang.org/x/sys/unix"

import "github.com/bnclabs/lfmalloc/log"

// PageAlloc obtains a zeroed, page-aligned anonymous mapping of at
// least `size` bytes from the OS. Thread-safe by way of being a
// syscall; consulted only on allocator slow paths (new superblock,
// large allocation).
func PageAlloc(size int64) (uintptr, error) {
	b, err := unix.Mmap(
		-1, 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Warnf("lfmalloc: mmap(%v) failed: %v\n", size, err)
		return 0, ErrOutOfMemory
	}
	return uintptr(unsafe.Pointer(&b[0])), nil
}

// PageFree returns a region obtained from PageAlloc back to the OS.
func PageFree(addr uintptr, size int64) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size))
	if err := unix.Munmap(b); err != nil {
		log.Errorf("lfmalloc: munmap(%#x, %v) failed: %v\n", addr, size, err)
	}
}
