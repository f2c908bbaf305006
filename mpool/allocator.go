package mpool

import "unsafe"

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/gopool/api"

// Poolallocator adapts a singleton pool to the allocate/deallocate
// surface generic containers expect. Array allocations of any length
// go through the contiguous-run path. An out-of-memory condition
// panics with api.ErrorOutofMemory. Do not share a tag between a
// Poolallocator and a Fastpoolallocator, their free patterns differ.
type Poolallocator struct {
	tag   string
	size  int64
	setts s.Settings
}

// NewPoolallocator façade over the singleton pool keyed by
// (tag, size).
func NewPoolallocator(tag string, size int64, setts s.Settings) *Poolallocator {
	if size < 1 {
		panicerr("allocation size %v shall be at least 1", size)
	}
	return &Poolallocator{tag: tag, size: size, setts: setts}
}

// Allocate memory for n objects of the façade's size.
func (pa *Poolallocator) Allocate(n int64) unsafe.Pointer {
	ptr := Getsingleton(pa.tag, pa.size, pa.setts).Orderedmallocn(n)
	if ptr == nil {
		panic(api.ErrorOutofMemory)
	}
	return ptr
}

// Deallocate memory previously obtained from Allocate with the same
// n.
func (pa *Poolallocator) Deallocate(ptr unsafe.Pointer, n int64) {
	Getsingleton(pa.tag, pa.size, pa.setts).Orderedfreen(ptr, n)
}

// Fastpoolallocator same façade, but single object requests take the
// O(1) unordered path. Suited to containers that allocate one node
// at a time.
type Fastpoolallocator struct {
	tag   string
	size  int64
	setts s.Settings
}

// NewFastpoolallocator façade over the singleton pool keyed by
// (tag, size).
func NewFastpoolallocator(tag string, size int64, setts s.Settings) *Fastpoolallocator {
	if size < 1 {
		panicerr("allocation size %v shall be at least 1", size)
	}
	return &Fastpoolallocator{tag: tag, size: size, setts: setts}
}

// Allocate memory for n objects of the façade's size.
func (pa *Fastpoolallocator) Allocate(n int64) unsafe.Pointer {
	sp := Getsingleton(pa.tag, pa.size, pa.setts)
	var ptr unsafe.Pointer
	if n == 1 {
		ptr = sp.Malloc()
	} else {
		ptr = sp.Orderedmallocn(n)
	}
	if ptr == nil {
		panic(api.ErrorOutofMemory)
	}
	return ptr
}

// Deallocate memory previously obtained from Allocate with the same
// n.
func (pa *Fastpoolallocator) Deallocate(ptr unsafe.Pointer, n int64) {
	sp := Getsingleton(pa.tag, pa.size, pa.setts)
	if n == 1 {
		sp.Free(ptr)
	} else {
		sp.Orderedfreen(ptr, n)
	}
}
