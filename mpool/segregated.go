// Functions and methods are not thread safe.

package mpool

import "unsafe"

// flist manages a memory region sliced up into equal sized chunks,
// threading a singly linked free list through the first word of each
// free chunk. The zero value is an empty list.
type flist struct {
	first uintptr // head of the free list, 0 when empty.
}

// nextof interpret the first pointer-sized word of a free chunk as
// the link to the next free chunk.
func nextof(ptr uintptr) *uintptr {
	return (*uintptr)(unsafe.Pointer(ptr))
}

// segregate region of `sz` bytes at `block` into chunks of
// `partitionsz` bytes, thread them into a list in ascending address
// order and terminate the last chunk with `end`. Returns the head,
// which equals `block`. Iterates from the last full chunk backwards.
func segregate(block uintptr, sz, partitionsz int64, end uintptr) uintptr {
	// last valid chunk; the divide/multiply keeps old on a chunk
	// boundary even when sz is not a multiple of partitionsz.
	old := block + uintptr(((sz-partitionsz)/partitionsz)*partitionsz)
	*nextof(old) = end
	if old == block { // region of a single chunk
		return block
	}
	for iter := old - uintptr(partitionsz); iter != block; iter -= uintptr(partitionsz) {
		*nextof(iter) = old
		old = iter
	}
	*nextof(block) = old
	return block
}

func (fl *flist) empty() bool {
	return fl.first == 0
}

// addblock segregate a new region and prepend its chunks to the free
// list.
func (fl *flist) addblock(block uintptr, sz, partitionsz int64) {
	fl.first = segregate(block, sz, partitionsz, fl.first)
}

// addorderedblock segregate a new region and splice its chunks into
// the free list preserving ascending address order.
func (fl *flist) addorderedblock(block uintptr, sz, partitionsz int64) {
	loc := fl.findprev(block)
	if loc == 0 {
		fl.addblock(block, sz, partitionsz)
	} else {
		*nextof(loc) = segregate(block, sz, partitionsz, *nextof(loc))
	}
}

// findprev return the free chunk after which `ptr` would be spliced
// to keep the list ordered, 0 if ptr precedes the head or the list
// is empty. Note that this locates the position previous to where
// ptr would go, not the entry before a ptr already in the list.
func (fl *flist) findprev(ptr uintptr) uintptr {
	if fl.first == 0 || fl.first > ptr {
		return 0
	}
	iter := fl.first
	for {
		if *nextof(iter) == 0 || *nextof(iter) > ptr {
			return iter
		}
		iter = *nextof(iter)
	}
}

// allocchunk pop the head of the free list. Precondition: !empty().
func (fl *flist) allocchunk() uintptr {
	ret := fl.first
	fl.first = *nextof(ret)
	return ret
}

// freechunk push chunk to the head of the free list.
func (fl *flist) freechunk(chunk uintptr) {
	*nextof(chunk) = fl.first
	fl.first = chunk
}

// orderedfree splice chunk into the free list at its ascending
// address position.
func (fl *flist) orderedfree(chunk uintptr) {
	loc := fl.findprev(chunk)
	if loc == 0 {
		fl.freechunk(chunk)
	} else {
		*nextof(chunk) = *nextof(loc)
		*nextof(loc) = chunk
	}
}

// trymallocn check for a run of n contiguous chunks whose first
// chunk is the target of the link word *start. Returns the last
// chunk of the run, or 0 after advancing *start past the broken run.
// Contiguous means successive addresses differ by exactly
// partitionsz.
func trymallocn(start **uintptr, n, partitionsz int64) uintptr {
	iter := **start
	for ; n > 1; n-- {
		next := *nextof(iter)
		if next != iter+uintptr(partitionsz) {
			// 0 (end of list) or non-contiguous chunk.
			*start = nextof(iter)
			return 0
		}
		iter = next
	}
	return iter
}

// mallocn unlink and return a run of n contiguous chunks, 0 if no
// such run exists. The free list must be ordered for runs to ever
// assemble. O(F*n) worst case over a free list of length F.
func (fl *flist) mallocn(n, partitionsz int64) uintptr {
	if n == 0 {
		return 0
	}
	start := &fl.first
	var iter uintptr
	for {
		if *start == 0 {
			return 0
		}
		if iter = trymallocn(&start, n, partitionsz); iter != 0 {
			break
		}
	}
	ret := *start
	*start = *nextof(iter)
	return ret
}

// freen merge a run of n chunks back, unordered.
func (fl *flist) freen(chunks uintptr, n, partitionsz int64) {
	if n != 0 {
		fl.addblock(chunks, n*partitionsz, partitionsz)
	}
}

// orderedfreen merge a run of n chunks back at its ordered position.
func (fl *flist) orderedfreen(chunks uintptr, n, partitionsz int64) {
	if n != 0 {
		fl.addorderedblock(chunks, n*partitionsz, partitionsz)
	}
}
