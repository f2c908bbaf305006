package api

import "errors"

// ErrorOutofMemory by allocator façades when the underlying pool
// cannot obtain a new region from its user-allocator.
var ErrorOutofMemory = errors.New("mpool.outofmemory")
