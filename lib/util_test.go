package lib

import "testing"
import "fmt"
import "reflect"
import "unsafe"
import "bytes"

var _ = fmt.Sprintf("dummy")

func TestMemcpy(t *testing.T) {
	src, dst := make([]byte, 100), make([]byte, 1024)
	for i := 0; i < len(src); i++ {
		src[0] = 0xAB
	}
	n := Memcpy(
		unsafe.Pointer(((*reflect.SliceHeader)(unsafe.Pointer(&dst))).Data),
		unsafe.Pointer(((*reflect.SliceHeader)(unsafe.Pointer(&src))).Data),
		len(src))
	if n != len(src) {
		t.Fatalf("expected %v, got %v", len(src), n)
	} else if bytes.Compare(dst[:len(src)], src) != 0 {
		t.Fatalf("Memcpy() failed")
	}

	dst, src = make([]byte, 100), make([]byte, 1024)
	for i := 0; i < len(src); i++ {
		src[0] = 0xAB
	}
	n = Memcpy(
		unsafe.Pointer(((*reflect.SliceHeader)(unsafe.Pointer(&dst))).Data),
		unsafe.Pointer(((*reflect.SliceHeader)(unsafe.Pointer(&src))).Data),
		len(dst))
	if n != len(dst) {
		t.Fatalf("expected %v, got %v", len(dst), n)
	} else if bytes.Compare(dst, src[:len(dst)]) != 0 {
		t.Fatalf("Memcpy() failed")
	}
}

func TestAbsInt64(t *testing.T) {
	if x := AbsInt64(10); x != 10 {
		t.Errorf("expected 10, got %v", x)
	} else if x = AbsInt64(0); x != 0 {
		t.Errorf("expected 0, got %v", x)
	} else if x = AbsInt64(-10); x != 10 {
		t.Errorf("expected 10, got %v", x)
	}
}

func BenchmarkMemcpy(b *testing.B) {
	ln := 10 * 1024
	src, dst := make([]byte, ln), make([]byte, ln)
	for i := 0; i < len(src); i++ {
		src[0] = 0xAB
	}
	for i := 0; i < b.N; i++ {
		Memcpy(
			unsafe.Pointer(((*reflect.SliceHeader)(unsafe.Pointer(&dst))).Data),
			unsafe.Pointer(((*reflect.SliceHeader)(unsafe.Pointer(&src))).Data),
			ln)
	}
}
