// Functions and methods are not thread safe.

package mpool

import "unsafe"

import s "github.com/bnclabs/gosettings"

// Objpool a typed pool of T values layered over an ordered Pool with
// the requested size fixed to sizeof(T). The pool remembers which
// chunks are live, so Release can run the element finalizer on every
// object that was never given back.
//
// Since chunk storage is invisible to the garbage collector, T shall
// not hold references into the go heap.
type Objpool[T any] struct {
	pool *Pool

	// finalizer invoked by Destroy and by the Release sweep for
	// every live element. Shall not panic. May be nil.
	finalizer func(*T)
}

// NewObjpool create a typed pool for T with settings from
// Defaultsettings(). T shall not be zero sized.
func NewObjpool[T any](finalizer func(*T), setts s.Settings) *Objpool[T] {
	var zero T
	size := int64(unsafe.Sizeof(zero))
	if size == 0 {
		panicerr("objpool needs a non zero sized element type")
	}
	return &Objpool[T]{pool: NewPool(size, setts), finalizer: finalizer}
}

// Malloc memory that can hold one T. No initialisation runs.
func (op *Objpool[T]) Malloc() *T {
	return (*T)(op.pool.Orderedmalloc())
}

// Free memory holding a T back to the pool. No finalizer runs.
func (op *Objpool[T]) Free(ptr *T) {
	op.pool.Orderedfree(unsafe.Pointer(ptr))
}

// Construct allocate a zeroed T and run `init` on it. If init
// panics the chunk is returned to the pool before the panic
// propagates. Returns nil on out-of-memory.
func (op *Objpool[T]) Construct(init func(*T)) *T {
	ptr := op.Malloc()
	if ptr == nil {
		return nil
	}
	var zero T
	*ptr = zero
	if init != nil {
		ok := false
		defer func() {
			if !ok {
				op.Free(ptr)
			}
		}()
		init(ptr)
		ok = true
	}
	return ptr
}

// Destroy run the finalizer on ptr and free it.
func (op *Objpool[T]) Destroy(ptr *T) {
	if op.finalizer != nil {
		op.finalizer(ptr)
	}
	op.Free(ptr)
}

// Isfrom return true if ptr was allocated from this pool. Not a safe
// predicate on arbitrary pointers.
func (op *Objpool[T]) Isfrom(ptr *T) bool {
	return op.pool.Isfrom(unsafe.Pointer(ptr))
}

// Getnextsize of the underlying pool.
func (op *Objpool[T]) Getnextsize() int64 {
	return op.pool.Getnextsize()
}

// Setnextsize of the underlying pool.
func (op *Objpool[T]) Setnextsize(nextsize int64) {
	op.pool.Setnextsize(nextsize)
}

// Info of memory accounting for the underlying pool.
func (op *Objpool[T]) Info() (capacity, heap, alloc, overhead int64) {
	return op.pool.Info()
}

// Release run the finalizer on every live element, then return all
// regions to the user-allocator. Relies on block list and free list
// being in ascending address order, a single cursor walks the free
// list in tandem with the chunk iterator. O(total chunks). The pool
// is empty afterwards and can be reused.
func (op *Objpool[T]) Release() {
	pool := op.pool
	if !pool.list.valid() {
		return
	}
	partitionsize := pool.Allocsize()
	freediter := pool.store.first
	iter := pool.list
	for iter.valid() {
		next := iter.next()
		for i := iter.begin(); i != iter.end(); i += uintptr(partitionsize) {
			if i == freediter { // chunk is free, skip
				freediter = *nextof(freediter)
				continue
			}
			if op.finalizer != nil {
				op.finalizer((*T)(unsafe.Pointer(i)))
			}
		}
		pool.userfree(iter)
		iter = next
	}
	pool.list.invalidate()
	pool.store.first = 0
	pool.allocated = 0
	pool.nextsize = pool.startsize
}
