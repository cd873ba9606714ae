package lfmalloc

import "fmt"

import gosettings "github.com/prataprc/gosettings"

// PageSize is the OS page size this allocator assumes. Superblock and
// descriptor-batch sizes are expressed as multiples of it.
const PageSize = int64(4096)

// Cacheline is the alignment every Descriptor is carved to, so that the
// low bits of a descriptor's address are free for the active-pointer's
// credit counter (see packActive) and for the tagged-pointer counter
// (see tagptr.go).
const Cacheline = int64(64)

// SuperblockSize is the default superblock size: a multiple of PageSize,
// carved into equal blockSize chunks for one size class. 2 MiB is the
// default, a size chosen to amortize mmap overhead across thousands of
// blocks in the smallest size classes.
const SuperblockSize = int64(2 * 1024 * 1024)

// MinBlockSize is the smallest allocatable small-object size. Must be at
// least 8 bytes, room for the free-stack link index (a uint32) kept at
// the start of every free block.
const MinBlockSize = int64(8)

// MaxBlockSize is the largest size served by a size-class heap; requests
// above this go through the large-allocation path.
const MaxBlockSize = int64(8192)

// CreditsMax bounds how many blocks a thread may pre-reserve on the
// active superblock in one step. 6 bits' worth, matching the low bits
// stolen from a Cacheline-aligned descriptor pointer.
const CreditsMax = uint64(63)

// DescPoolPages is the number of OS pages fetched in one descriptor-pool
// refill, carved into Cacheline-aligned Descriptor records.
const DescPoolPages = int64(16)

// Settings configurable parameters for NewAllocator.
//
// "sbsize" (int64, default: SuperblockSize)
//	Superblock size for every size class. Must be a multiple of PageSize.
//
// "minblock" (int64, default: MinBlockSize)
//	Smallest block size servable by a size-class heap.
//
// "maxblock" (int64, default: MaxBlockSize)
//	Largest block size servable by a size-class heap; bigger requests
//	take the large-allocation path.
//
// "descpool.pages" (int64, default: DescPoolPages)
//	OS pages fetched per descriptor-pool refill.
type Settings = gosettings.Settings

// DefaultSettings returns the default configuration.
func DefaultSettings() Settings {
	return Settings{
		"sbsize":         SuperblockSize,
		"minblock":       MinBlockSize,
		"maxblock":       MaxBlockSize,
		"descpool.pages": DescPoolPages,
	}
}

func validateSettings(setts Settings) {
	minblock, maxblock := setts.Int64("minblock"), setts.Int64("maxblock")
	if minblock < 8 {
		panic(fmt.Errorf("minblock(%v) below the 8-byte free-stack link", minblock))
	} else if minblock > maxblock {
		panic(fmt.Errorf("minblock(%v) > maxblock(%v)", minblock, maxblock))
	}
	if sbsize := setts.Int64("sbsize"); (sbsize % PageSize) != 0 {
		panic(fmt.Errorf("sbsize(%v) not a multiple of page size %v", sbsize, PageSize))
	}
}
