//go:build debug

package mpool

import "unsafe"

import "github.com/bnclabs/gopool/lib"

// initblock poison freshly allocated chunks so stale reads show up
// as 0xff patterns.
func initblock(block uintptr, size int64) {
	lib.Memset(unsafe.Pointer(block), 0xff, int(size))
}
