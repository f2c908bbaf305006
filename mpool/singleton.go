package mpool

import "sync"
import "unsafe"

import s "github.com/bnclabs/gosettings"

// Nullmutex no-op locker for singleton pools whose callers serialise
// access themselves.
type Nullmutex struct{}

// Lock implement sync.Locker{} interface.
func (Nullmutex) Lock() {}

// Unlock implement sync.Locker{} interface.
func (Nullmutex) Unlock() {}

// Singletonpool process wide pool shared across components that
// agree on a tag and a chunk size. Every operation is bracketed by
// the instance's locker.
type Singletonpool struct {
	mu   sync.Locker
	pool *Pool
}

type singletonkey struct {
	tag  string
	size int64
}

var singletonrg = struct {
	sync.Mutex
	pools map[singletonkey]*Singletonpool
}{pools: make(map[singletonkey]*Singletonpool)}

// Getsingleton lazily construct, and thereafter share, the pool
// identified by (tag, requestedsize). Settings are honoured only by
// the call that constructs the instance; later calls ignore them.
// With "nullmutex" set the instance skips locking.
func Getsingleton(tag string, requestedsize int64, setts s.Settings) *Singletonpool {
	singletonrg.Lock()
	defer singletonrg.Unlock()

	key := singletonkey{tag, requestedsize}
	if sp, ok := singletonrg.pools[key]; ok {
		return sp
	}
	setts = Defaultsettings().Mixin(setts)
	var mu sync.Locker = &sync.Mutex{}
	if setts.Bool("nullmutex") {
		mu = Nullmutex{}
	}
	sp := &Singletonpool{mu: mu, pool: NewPool(requestedsize, setts)}
	singletonrg.pools[key] = sp
	return sp
}

// Purgeregistry purge every singleton pool and empty the registry.
// Meant for process teardown and tests.
func Purgeregistry() {
	singletonrg.Lock()
	defer singletonrg.Unlock()

	for key, sp := range singletonrg.pools {
		sp.mu.Lock()
		sp.pool.Purgememory()
		sp.mu.Unlock()
		delete(singletonrg.pools, key)
	}
}

//---- operations, each serialised by the instance locker.

// Malloc a single chunk.
func (sp *Singletonpool) Malloc() unsafe.Pointer {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Malloc()
}

// Orderedmalloc a single chunk preserving list order.
func (sp *Singletonpool) Orderedmalloc() unsafe.Pointer {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Orderedmalloc()
}

// Orderedmallocn a contiguous run holding n requested-size objects.
func (sp *Singletonpool) Orderedmallocn(n int64) unsafe.Pointer {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Orderedmallocn(n)
}

// Free a chunk.
func (sp *Singletonpool) Free(ptr unsafe.Pointer) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.pool.Free(ptr)
}

// Orderedfree a chunk preserving list order.
func (sp *Singletonpool) Orderedfree(ptr unsafe.Pointer) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.pool.Orderedfree(ptr)
}

// Freen a run of chunks.
func (sp *Singletonpool) Freen(ptr unsafe.Pointer, n int64) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.pool.Freen(ptr, n)
}

// Orderedfreen a run of chunks preserving list order.
func (sp *Singletonpool) Orderedfreen(ptr unsafe.Pointer, n int64) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.pool.Orderedfreen(ptr, n)
}

// Isfrom return true if chunk came from this pool.
func (sp *Singletonpool) Isfrom(chunk unsafe.Pointer) bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Isfrom(chunk)
}

// Releasememory give back fully free regions.
func (sp *Singletonpool) Releasememory() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Releasememory()
}

// Purgememory give back every region.
func (sp *Singletonpool) Purgememory() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Purgememory()
}

// Getnextsize of the underlying pool.
func (sp *Singletonpool) Getnextsize() int64 {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Getnextsize()
}

// Setnextsize of the underlying pool.
func (sp *Singletonpool) Setnextsize(nextsize int64) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.pool.Setnextsize(nextsize)
}

// Info of memory accounting for the underlying pool.
func (sp *Singletonpool) Info() (capacity, heap, alloc, overhead int64) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.pool.Info()
}
