package mpool

import "unsafe"

import "github.com/bnclabs/gopool/lib"

// word sizes that fix chunk stride and trailer alignment.
var ptrsize = int64(unsafe.Sizeof(uintptr(0)))
var sizesize = int64(unsafe.Sizeof(int64(0)))

// minallocsize smallest stride that can overlay a free-list link and
// keep the trailer's size word aligned.
var minallocsize = lib.Lcm(ptrsize, sizesize)

// trailersize tail bytes of every region, holding the link to the
// next region and its total length.
var trailersize = minallocsize + sizesize

// blockptr describes one raw region obtained from the user-allocator:
// base address and total byte length. The region tail doubles as the
// block-list link, so blockptr carries no state of its own. An
// invalid blockptr (zero base) ends the block list.
//
// Layout, low to high address:
//
//	[ chunk 0 | ... | chunk N-1 | padding | next base | next size ]
type blockptr struct {
	base uintptr
	size int64
}

func (bp blockptr) valid() bool {
	return bp.base != 0
}

func (bp *blockptr) invalidate() {
	bp.base, bp.size = 0, 0
}

func (bp blockptr) begin() uintptr {
	return bp.base
}

// end one past the chunk area, which is also where the trailer's
// link word lives.
func (bp blockptr) end() uintptr {
	return bp.ptrnextptr()
}

func (bp blockptr) totalsize() int64 {
	return bp.size
}

// elementsize byte length of the chunk area.
func (bp blockptr) elementsize() int64 {
	return bp.size - trailersize
}

func (bp blockptr) ptrnextsize() uintptr {
	return bp.base + uintptr(bp.size) - uintptr(sizesize)
}

func (bp blockptr) ptrnextptr() uintptr {
	return bp.ptrnextsize() - uintptr(minallocsize)
}

func (bp blockptr) nextbase() uintptr {
	return *(*uintptr)(unsafe.Pointer(bp.ptrnextptr()))
}

func (bp blockptr) nextsize() int64 {
	return *(*int64)(unsafe.Pointer(bp.ptrnextsize()))
}

func (bp blockptr) next() blockptr {
	return blockptr{bp.nextbase(), bp.nextsize()}
}

func (bp blockptr) setnext(arg blockptr) {
	*(*uintptr)(unsafe.Pointer(bp.ptrnextptr())) = arg.base
	*(*int64)(unsafe.Pointer(bp.ptrnextsize())) = arg.size
}
