// Package mpool supplies fixed-chunk memory pools for algorithms
// whose allocation sizes are known apriori, with a limited scope:
//
//   - Types and Functions exported by this package are not thread
//     safe, except the singleton-pool surface which serialises every
//     operation behind its own mutex.
//   - Every chunk served by a pool has the same effective size, the
//     lcm of the requested size and pointer/size-word alignment.
//   - Memory is obtained from a user-allocator in large regions and
//     carved into chunks. Regions grow geometrically, doubling the
//     chunk count on every grow until an optional cap.
//   - A free chunk's first word threads the free list through the
//     chunk storage itself. Freed regions are given back to the
//     user-allocator only by Releasememory, Purgememory or an object
//     pool's Release sweep.
//   - There is no pointer re-write and no coalescing across pools.
//
// Memory-chunks allocated by this package are always aligned for
// both pointers and size words.
package mpool

// TODO: pool-level shrink hints, so long lived ordered pools can
// trigger Releasememory from a memory pressure callback.
