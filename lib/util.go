package lib

import "unsafe"

// Memcpy copy memory block of length `ln` from `src` to `dst`. This
// function is useful if memory block is obtained outside golang
// runtime.
func Memcpy(dst, src unsafe.Pointer, ln int) int {
	dstnd := unsafe.Slice((*byte)(dst), ln)
	srcnd := unsafe.Slice((*byte)(src), ln)
	return copy(dstnd, srcnd)
}

// Memset fill memory block of length `ln` at `dst` with byte `b`.
func Memset(dst unsafe.Pointer, b byte, ln int) {
	dstnd := unsafe.Slice((*byte)(dst), ln)
	for i := range dstnd {
		dstnd[i] = b
	}
}
