// Package malloc supplies a thread aware memory allocator built over a
// single, fixed capacity memory region:
//
//   - The region is carved into 2MB chunks. Chunks are handed out to
//     thread contexts using a lock-free free-chunk stack and a bump
//     cursor, the arena never calls the OS after the region is set up.
//   - Every thread context owns at most one chunk. Inside the chunk,
//     small allocations are served from fixed size slab classes with
//     bump allocation and a LIFO free list, medium allocations are
//     served from a two level segregated fit (TLSF) heap over the bytes
//     left after the slab classes.
//   - Large allocations, and every allocation that cannot be served from
//     the chunk, go to the C library allocator.
//   - Memory freed by a context that does not own the chunk is batched
//     and published to the chunk's inbox, the owner drains the inbox
//     periodically or when a slab class runs dry.
//   - Memory is never given back to the OS, chunks are recycled
//     through the arena when a thread context is closed.
//
// Thread contexts are not thread safe, each context must be used by one
// goroutine at a time. Allocator and Arena are thread safe.
package malloc
