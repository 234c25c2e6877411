// Package xmalloc implement a thread aware memory allocator and
// necessary tools and libraries.
//
// api:
//
// Interface specification for allocators and the memory sources
// backing them.
//
// lib:
//
// Convinience functions that can be used by other packages. Package shall
// not import packages other than golang's standard packages.
//
// log:
//
// Leveled logger used by the allocator packages, applications can plug
// in their own logger with SetLogger.
//
// malloc:
//
// Chunk arena, slab classes, two level segregated fit heap, thread
// contexts with cross-thread deallocation, and the system fallback
// allocator.
//
// tools/slabs:
//
// Command line tool to print the slab layout of a chunk and to run a
// concurrent allocation workload.
package xmalloc
