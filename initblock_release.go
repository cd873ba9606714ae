// +build !debug

package lfmalloc

// initblock is a no-op in production builds: mmap already hands back
// zeroed pages, and poisoning them costs a full write pass over every
// fresh superblock for no benefit outside debugging.
func initblock(base uintptr, size int64) {}
