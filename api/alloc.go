package api

import "unsafe"

// UserAllocator sources raw memory regions for a pool. Regions are
// obtained and released wholesale, the pool carves them into chunks.
// Implementations shall not panic on exhaustion, they return nil.
type UserAllocator interface {
	// Malloc a raw region of `bytes` bytes. Returns nil if the
	// request cannot be satisfied.
	Malloc(bytes int64) unsafe.Pointer

	// Free a region previously returned by Malloc.
	Free(ptr unsafe.Pointer)
}

// Mallocer interface for fixed-chunk allocators. Memory-chunks
// handed out by a Mallocer are always pointer aligned.
type Mallocer interface {
	// Malloc a single chunk.
	Malloc() unsafe.Pointer

	// Free chunk back to the allocator.
	Free(ptr unsafe.Pointer)

	// Isfrom return true if chunk was allocated from this allocator.
	// Meaningful only for pointers that came from some pool.
	Isfrom(ptr unsafe.Pointer) bool

	// Info of memory accounting for this allocator.
	Info() (capacity, heap, alloc, overhead int64)
}
