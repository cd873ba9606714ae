package lfmalloc

import "errors"
import "fmt"

// ErrOutOfMemory is returned by internal slow paths when the OS refuses a
// page request. It never crosses the public ABI as an error value: the
// ABI surface (Allocate, Calloc, AlignedAllocate, ...) reports it as a nil
// pointer, per convention with the system allocator.
var ErrOutOfMemory = errors.New("lfmalloc.outofmemory")

// ErrInvalidArgument covers zero or non-power-of-2 alignment requests.
// Like ErrOutOfMemory it never crosses the public ABI as an error value;
// AlignedAllocate reports it as a nil pointer.
var ErrInvalidArgument = errors.New("lfmalloc.invalidargument")

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

func validateAlignment(alignment int64) error {
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		return ErrInvalidArgument
	}
	return nil
}
