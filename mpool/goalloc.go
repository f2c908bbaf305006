package mpool

import "unsafe"

// Goallocator sources raw regions from the go heap. Regions are
// pinned in a registry so their memory stays reachable while the
// owning pool threads lists through it; Free unpins. Not thread
// safe, give each pool its own instance.
type Goallocator struct {
	regions map[uintptr][]byte
}

// NewGoallocator create a fresh region source.
func NewGoallocator() *Goallocator {
	return &Goallocator{regions: make(map[uintptr][]byte)}
}

// Malloc implement api.UserAllocator{} interface.
func (ga *Goallocator) Malloc(bytes int64) unsafe.Pointer {
	if bytes <= 0 {
		return nil
	}
	region := make([]byte, bytes)
	base := unsafe.Pointer(unsafe.SliceData(region))
	if uintptr(base)&uintptr(minallocsize-1) != 0 {
		panicerr("region base %x is not %v byte aligned", base, minallocsize)
	}
	ga.regions[uintptr(base)] = region
	return base
}

// Free implement api.UserAllocator{} interface.
func (ga *Goallocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		panic("goallocator.free(): nil pointer")
	} else if _, ok := ga.regions[uintptr(ptr)]; !ok {
		panicerr("goallocator.free(): foreign region %x", ptr)
	}
	delete(ga.regions, uintptr(ptr))
}
