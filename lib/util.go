package lib

import "unsafe"
import "reflect"
import "fmt"
import "bytes"
import "strings"
import "encoding/json"

// Memcpy copy memory block of length `ln` from `src` to `dst`. This
// function is useful if memory block is obtained outside golang runtime,
// e.g. from an allocator's superblock.
func Memcpy(dst, src unsafe.Pointer, ln int) int {
	var srcnd, dstnd []byte
	srcsl := (*reflect.SliceHeader)(unsafe.Pointer(&srcnd))
	srcsl.Len, srcsl.Cap = ln, ln
	srcsl.Data = (uintptr)(unsafe.Pointer(src))
	dstsl := (*reflect.SliceHeader)(unsafe.Pointer(&dstnd))
	dstsl.Len, dstsl.Cap = ln, ln
	dstsl.Data = (uintptr)(unsafe.Pointer(dst))
	return copy(dstnd, srcnd)
}

// GetStacktrace return stack-trace in human readable format.
func GetStacktrace(skip int, stack []byte) string {
	var buf bytes.Buffer
	lines := strings.Split(string(stack), "\n")
	for _, call := range lines[skip*2:] {
		buf.WriteString(fmt.Sprintf("%s\n", call))
	}
	return buf.String()
}

// Prettystats uses json.MarshalIndent, if pretty is true, instead of
// json.Marshal. If Marshal returns an error Prettystats will panic.
func Prettystats(stats map[string]interface{}, pretty bool) string {
	if pretty {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			panic(err)
		}
		return string(data)
	}
	data, err := json.Marshal(stats)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// AbsInt64 absolute value of int64 number. Except for -2^63, where the
// returned value will be the same as the input.
func AbsInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
