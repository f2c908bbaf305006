// Functions and methods are not thread safe.

package mpool

import "unsafe"

import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/gopool/api"
import "github.com/bnclabs/gopool/lib"

// Pool a fast memory allocator handing out equal sized chunks. Chunk
// stride is the lcm of the requested size and the pointer/size word
// sizes, so every chunk can overlay a free-list link and every
// region trailer stays aligned. Memory is requested from the
// user-allocator in regions whose chunk count doubles on every grow.
//
// Single-chunk Malloc/Free are amortised O(1). The ordered variants
// keep free list and block list in ascending address order, which
// run allocation, Releasememory and the object-pool sweep rely on.
type Pool struct {
	store flist    // segregated storage over all regions
	list  blockptr // head of the ordered block list

	// configuration
	requestedsize int64
	nextsize      int64
	startsize     int64
	maxsize       int64 // in requested-size chunks, 0 for unlimited
	capacity      int64 // in bytes, 0 for unlimited
	mallocer      api.UserAllocator

	// statistics
	heap      int64 // bytes currently obtained from the user-allocator
	allocated int64 // bytes currently handed out to the application
	ngrows    int64
	nreleases int64
}

// NewPool create a new empty pool serving chunks of
// `requestedsize` bytes, with settings from Defaultsettings().
// requestedsize and "nextsize" shall be at least 1.
func NewPool(requestedsize int64, setts s.Settings) *Pool {
	setts = Defaultsettings().Mixin(setts)
	nextsize := setts.Int64("nextsize")
	if requestedsize < 1 {
		panicerr("requestedsize %v shall be at least 1", requestedsize)
	} else if nextsize < 1 {
		panicerr("nextsize %v shall be at least 1", nextsize)
	}
	pool := &Pool{
		requestedsize: requestedsize,
		nextsize:      nextsize,
		startsize:     nextsize,
		maxsize:       setts.Int64("maxsize"),
		capacity:      setts.Int64("capacity"),
		mallocer:      newuserallocator(setts),
	}
	return pool
}

//---- operations

// Allocsize effective size of the memory chunks served by this pool.
func (pool *Pool) Allocsize() int64 {
	return lib.Lcm(pool.requestedsize, minallocsize)
}

// Malloc a single chunk, growing the pool if the free list is
// exhausted. Returns nil if the user-allocator cannot satisfy the
// grow; pool state is unchanged in that case.
func (pool *Pool) Malloc() unsafe.Pointer {
	if !pool.store.empty() {
		return pool.popchunk()
	}
	return pool.mallocneedresize()
}

// Orderedmalloc same as Malloc, but a grow merges the new region
// into free list and block list preserving ascending address order.
func (pool *Pool) Orderedmalloc() unsafe.Pointer {
	if !pool.store.empty() {
		return pool.popchunk()
	}
	return pool.orderedmallocneedresize()
}

// Orderedmallocn a contiguous run of chunks holding `n` objects of
// the requested size. Returns nil if no run exists and the
// user-allocator cannot satisfy a grow.
func (pool *Pool) Orderedmallocn(n int64) unsafe.Pointer {
	partitionsize := pool.Allocsize()
	numchunks := pool.numchunks(n)
	if ptr := pool.store.mallocn(numchunks, partitionsize); ptr != 0 {
		initblock(ptr, numchunks*partitionsize)
		pool.allocated += numchunks * partitionsize
		return unsafe.Pointer(ptr)
	}
	nextsize := max(pool.nextsize, numchunks)
	podsize := nextsize*partitionsize + trailersize
	base := pool.usermalloc(podsize)
	if base == 0 {
		return nil
	}
	pool.nextsize = nextsize
	node := blockptr{base, podsize}
	if pool.nextsize > numchunks { // segregate the leftover chunks
		pool.store.addorderedblock(
			node.begin()+uintptr(numchunks*partitionsize),
			node.elementsize()-numchunks*partitionsize, partitionsize)
	}
	pool.growdouble(partitionsize)
	pool.insertblock(node)
	pool.ngrows++
	debugf("mpool run grow: %v chunks, %v bytes, nextsize %v\n",
		numchunks, podsize, pool.nextsize)
	initblock(node.begin(), numchunks*partitionsize)
	pool.allocated += numchunks * partitionsize
	return unsafe.Pointer(node.begin())
}

// Free a chunk back to the pool. No verification is attempted, the
// chunk is assumed to originate from this pool. O(1).
func (pool *Pool) Free(ptr unsafe.Pointer) {
	pool.store.freechunk(uintptr(ptr))
	pool.allocated -= pool.Allocsize()
}

// Orderedfree same as Free, but splice the chunk at its ascending
// address position. O(F) over the free list.
func (pool *Pool) Orderedfree(ptr unsafe.Pointer) {
	pool.store.orderedfree(uintptr(ptr))
	pool.allocated -= pool.Allocsize()
}

// Freen return a run previously obtained with Orderedmallocn for the
// same n, unordered.
func (pool *Pool) Freen(ptr unsafe.Pointer, n int64) {
	numchunks := pool.numchunks(n)
	pool.store.freen(uintptr(ptr), numchunks, pool.Allocsize())
	pool.allocated -= numchunks * pool.Allocsize()
}

// Orderedfreen return a run previously obtained with Orderedmallocn
// for the same n, preserving free-list order.
func (pool *Pool) Orderedfreen(ptr unsafe.Pointer, n int64) {
	numchunks := pool.numchunks(n)
	pool.store.orderedfreen(uintptr(ptr), numchunks, pool.Allocsize())
	pool.allocated -= numchunks * pool.Allocsize()
}

// Isfrom return true if chunk lies in the chunk area of one of this
// pool's regions. Meaningful only for pointers that came from some
// pool, this is not a safe predicate on arbitrary addresses.
func (pool *Pool) Isfrom(chunk unsafe.Pointer) bool {
	return pool.findpod(uintptr(chunk)).valid()
}

// Releasememory give back every region whose chunks are all free.
// The pool must have been used in ordered mode throughout. Returns
// true if at least one region was released. Resets the grow size to
// its construction value. O(total chunks).
func (pool *Pool) Releasememory() bool {
	ret := false
	partitionsize := pool.Allocsize()
	ptr, prev := pool.list, blockptr{}
	freep, prevfreep := pool.store.first, uintptr(0)
	for ptr.valid() {
		if freep == 0 {
			break
		}
		// lockstep walk: a fully free region shows up as a prefix of
		// the remaining free list.
		allchunksfree, savedfree := true, freep
		for i := ptr.begin(); i != ptr.end(); i += uintptr(partitionsize) {
			if i != freep {
				allchunksfree, freep = false, savedfree
				break
			}
			freep = *nextof(freep)
		}
		next := ptr.next()
		if !allchunksfree {
			if isfromblock(freep, ptr.begin(), ptr.elementsize()) {
				// advance the cursor past this region's free chunks.
				end := ptr.end()
				for {
					prevfreep, freep = freep, *nextof(freep)
					if freep == 0 || freep >= end {
						break
					}
				}
			}
			prev = ptr
		} else {
			// unlink from the block list and the free list, then
			// return the region.
			if prev.valid() {
				prev.setnext(next)
			} else {
				pool.list = next
			}
			if prevfreep != 0 {
				*nextof(prevfreep) = freep
			} else {
				pool.store.first = freep
			}
			pool.userfree(ptr)
			pool.nreleases++
			ret = true
		}
		ptr = next
	}
	pool.nextsize = pool.startsize
	if ret {
		debugf("mpool release: heap %v after release\n", pool.heap)
	}
	return ret
}

// Purgememory unconditionally return every region to the
// user-allocator. Live chunks are invalidated without notice.
// Returns false if the pool held no regions.
func (pool *Pool) Purgememory() bool {
	iter := pool.list
	if !iter.valid() {
		return false
	}
	for iter.valid() {
		next := iter.next() // trailer dies with the region
		pool.userfree(iter)
		iter = next
	}
	pool.list.invalidate()
	pool.store.first = 0
	pool.allocated = 0
	pool.nextsize = pool.startsize
	debugf("mpool purge: all regions returned\n")
	return true
}

//---- configuration

// Getnextsize number of chunks requested from the user-allocator on
// the next grow.
func (pool *Pool) Getnextsize() int64 {
	return pool.nextsize
}

// Setnextsize for the next grow, also rebases the value restored by
// Releasememory and Purgememory. Shall be at least 1.
func (pool *Pool) Setnextsize(nextsize int64) {
	if nextsize < 1 {
		panicerr("nextsize %v shall be at least 1", nextsize)
	}
	pool.nextsize, pool.startsize = nextsize, nextsize
}

// Getmaxsize cap on the grow size, in requested-size chunks.
func (pool *Pool) Getmaxsize() int64 {
	return pool.maxsize
}

// Setmaxsize cap on the grow size, in requested-size chunks, 0 for
// unlimited.
func (pool *Pool) Setmaxsize(maxsize int64) {
	if maxsize < 0 {
		panicerr("maxsize %v shall not be negative", maxsize)
	}
	pool.maxsize = maxsize
}

// Getrequestedsize chunk size asked for at construction.
func (pool *Pool) Getrequestedsize() int64 {
	return pool.requestedsize
}

//---- statistics and maintenance

// Info of memory accounting for this pool.
func (pool *Pool) Info() (capacity, heap, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*pool))
	nblocks := int64(0)
	for iter := pool.list; iter.valid(); iter = iter.next() {
		nblocks++
	}
	return pool.capacity, pool.heap, pool.allocated, self + nblocks*trailersize
}

// Utilization percentage of obtained memory handed out to the
// application.
func (pool *Pool) Utilization() float64 {
	if pool.heap == 0 {
		return 0
	}
	return (float64(pool.allocated) / float64(pool.heap)) * 100
}

// Logstats dump one line of memory accounting via the package
// logger.
func (pool *Pool) Logstats() {
	capacity, heap, alloc, overhead := pool.Info()
	infof("mpool %v stride, heap:%v alloc:%v overhead:%v capacity:%v "+
		"grows:%v releases:%v utilz:%.2f%%\n",
		pool.Allocsize(), humanize.Bytes(uint64(heap)),
		humanize.Bytes(uint64(alloc)), humanize.Bytes(uint64(overhead)),
		humanize.Bytes(uint64(capacity)), pool.ngrows, pool.nreleases,
		pool.Utilization())
}

//---- local functions

// popchunk precondition: free list is not empty.
func (pool *Pool) popchunk() unsafe.Pointer {
	ptr := pool.store.allocchunk()
	partitionsize := pool.Allocsize()
	initblock(ptr, partitionsize)
	pool.allocated += partitionsize
	return unsafe.Pointer(ptr)
}

func (pool *Pool) numchunks(n int64) int64 {
	partitionsize := pool.Allocsize()
	total := n * pool.requestedsize
	numchunks := total / partitionsize
	if total%partitionsize != 0 {
		numchunks++
	}
	return numchunks
}

func (pool *Pool) mallocneedresize() unsafe.Pointer {
	partitionsize := pool.Allocsize()
	podsize := pool.nextsize*partitionsize + trailersize
	base := pool.usermalloc(podsize)
	if base == 0 {
		return nil
	}
	node := blockptr{base, podsize}
	pool.growdouble(partitionsize)
	pool.store.addblock(node.begin(), node.elementsize(), partitionsize)
	node.setnext(pool.list)
	pool.list = node
	pool.ngrows++
	debugf("mpool grow: %v bytes, nextsize %v\n", podsize, pool.nextsize)
	return pool.popchunk()
}

func (pool *Pool) orderedmallocneedresize() unsafe.Pointer {
	partitionsize := pool.Allocsize()
	podsize := pool.nextsize*partitionsize + trailersize
	base := pool.usermalloc(podsize)
	if base == 0 {
		return nil
	}
	node := blockptr{base, podsize}
	pool.growdouble(partitionsize)
	pool.store.addorderedblock(node.begin(), node.elementsize(), partitionsize)
	pool.insertblock(node)
	pool.ngrows++
	debugf("mpool ordered grow: %v bytes, nextsize %v\n", podsize, pool.nextsize)
	return pool.popchunk()
}

// growdouble double the grow size, clamped so that
// nextsize*partitionsize never exceeds maxsize worth of
// requested-size chunks.
func (pool *Pool) growdouble(partitionsize int64) {
	if pool.maxsize == 0 {
		pool.nextsize <<= 1
	} else if (pool.nextsize*partitionsize)/pool.requestedsize < pool.maxsize {
		pool.nextsize = min(
			pool.nextsize<<1, max((pool.maxsize*pool.requestedsize)/partitionsize, 1))
	}
}

// insertblock splice node into the block list in ascending base
// address order.
func (pool *Pool) insertblock(node blockptr) {
	if !pool.list.valid() || pool.list.base > node.base {
		node.setnext(pool.list)
		pool.list = node
		return
	}
	prev := pool.list
	for {
		if prev.nextbase() == 0 || prev.nextbase() > node.base {
			break
		}
		prev = prev.next()
	}
	node.setnext(prev.next())
	prev.setnext(node)
}

func isfromblock(chunk, base uintptr, sizeofbase int64) bool {
	return base <= chunk && chunk < base+uintptr(sizeofbase)
}

func (pool *Pool) findpod(chunk uintptr) blockptr {
	iter := pool.list
	for iter.valid() {
		if isfromblock(chunk, iter.begin(), iter.elementsize()) {
			return iter
		}
		iter = iter.next()
	}
	return iter
}

// usermalloc obtain a region, honouring the byte capacity cap. A
// failure leaves pool state untouched.
func (pool *Pool) usermalloc(bytes int64) uintptr {
	if pool.capacity > 0 && pool.heap+bytes > pool.capacity {
		errorf("mpool grow of %v bytes exceeds capacity %v\n", bytes, pool.capacity)
		return 0
	}
	ptr := pool.mallocer.Malloc(bytes)
	if ptr == nil {
		errorf("mpool user-allocator refused %v bytes\n", bytes)
		return 0
	}
	pool.heap += bytes
	return uintptr(ptr)
}

func (pool *Pool) userfree(bp blockptr) {
	pool.heap -= bp.totalsize()
	pool.mallocer.Free(unsafe.Pointer(bp.base))
}
