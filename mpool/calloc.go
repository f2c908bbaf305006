// Regions outside the go heap, for pools whose chunk memory must not
// interact with the garbage collector.

package mpool

//#include <stdlib.h>
import "C"

import "unsafe"

import "github.com/bnclabs/gopool/api"

// Callocator sources raw regions from the system malloc. Stateless,
// a single value can back any number of pools.
type Callocator struct{}

// Malloc implement api.UserAllocator{} interface.
func (Callocator) Malloc(bytes int64) unsafe.Pointer {
	return C.malloc(C.size_t(bytes))
}

// Free implement api.UserAllocator{} interface.
func (Callocator) Free(ptr unsafe.Pointer) {
	C.free(ptr)
}

func init() {
	newcallocator = func() api.UserAllocator { return Callocator{} }
}
