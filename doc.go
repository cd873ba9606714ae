// Package lfmalloc implements a lock-free, general-purpose dynamic memory
// allocator meant as a drop-in replacement for the system allocator inside
// a multi-threaded process.
//
// Every allocate/free on shared allocator state makes progress through
// compare-and-swap; no operation blocks on a mutex, and the algorithm
// tolerates arbitrary thread stalls and interleavings. It does not
// guarantee bounded latency under adversarial contention: it is
// lock-free, not wait-free.
//
// The allocator organizes memory into superblocks: large, page-aligned
// OS regions carved into equal-sized blocks belonging to one size
// class. A Descriptor, held outside the superblock, tracks the
// superblock's state in a single atomic word called the anchor (free-list
// head, free count, lifecycle state and an ABA-defeating tag). Each
// size-class heap keeps an "active" superblock for fast-path allocation
// and a lock-free list of "partial" superblocks with free blocks to
// spare.
//
// Requests above the largest small-object size class bypass the heaps
// entirely and go straight to the OS as dedicated large allocations.
//
// There is no per-thread cache layer: every allocate/free goes directly
// to the size-class heap. There is no fragmentation-reducing heuristic
// beyond superblock recycling, and the caller is trusted not to
// double-free or use memory after freeing it.
//
// Subpackages:
//
// api:
//
// The Allocator contract this package implements, including its
// accounting methods (Info, Utilization, Release).
//
// lib:
//
// Small standalone helpers (bit twiddling, memcpy, stats formatting)
// with no tie to the allocator's concurrency design.
//
// log:
//
// A pluggable leveled logger for the allocator's slow paths. Never
// consulted on the allocate/free hot path.
package lfmalloc

// TODO: descriptors are carved from OS pages in batches and never
// returned to the OS; a process that transiently needs many size
// classes active at once keeps that descriptor memory forever.
