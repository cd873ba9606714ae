package lfmalloc

// sizeClass is one entry of the static size-class table: a fixed block
// size, the superblock size every heap of this class carves into
// blocks of that size, and the derived block count.
type sizeClass struct {
	blockSize int64
	sbSize    int64
	maxcount  uint32
}

// sizeClasses generates the static table between minblock and maxblock,
// growing each class by roughly a constant utilization factor, but
// rounded to 8-byte multiples so every block can host the free-stack's
// next-index (a uint32) at offset zero.
func sizeClasses(minblock, maxblock, sbsize int64) []sizeClass {
	if maxblock < minblock {
		panicerr("minblock(%v) > maxblock(%v)", minblock, maxblock)
	} else if minblock < 8 || minblock%8 != 0 {
		panicerr("minblock(%v) must be a multiple of 8", minblock)
	}

	const growth = 0.25 // next class is ~25% bigger than the last

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * growth)
		if addby < 8 {
			addby = 8
		} else if rem := addby % 8; rem != 0 {
			addby += 8 - rem
		}
		return from + addby
	}

	classes := make([]sizeClass, 0, 32)
	for size := minblock; size < maxblock; size = nextsize(size) {
		classes = append(classes, sizeClass{
			blockSize: size,
			sbSize:    sbsize,
			maxcount:  uint32(sbsize / size),
		})
	}
	classes = append(classes, sizeClass{
		blockSize: maxblock,
		sbSize:    sbsize,
		maxcount:  uint32(sbsize / maxblock),
	})
	return classes
}

// lookupSizeClass picks the smallest size class able to service `size`,
// via binary search over the sorted bucket table. Returns -1 when size
// exceeds the largest small bucket — the caller's signal to take the
// large-allocation path.
func lookupSizeClass(classes []sizeClass, size int64) int {
	if size > classes[len(classes)-1].blockSize {
		return -1
	}
	lo, hi := 0, len(classes)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if classes[mid].blockSize < size {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
