// +build debug

package lfmalloc

import "unsafe"

// initblock marks freshly carved superblock memory with a recognizable
// non-zero pattern in debug builds, the same spirit as the reference
// pool allocator's debug.go: a caller that reads a block before its
// first allocation, or after use-after-free, sees 0xAA instead of
// plausible zeroed data.
var poisonPattern = byte(0xAA)

func initblock(base uintptr, size int64) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(base)), int(size))
	for i := range b {
		b[i] = poisonPattern
	}
}
