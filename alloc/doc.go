// Package alloc provides arena allocators with explicit alignment control.
//
// # Overview
//
// Every allocator manages a byte arena it does not own. An allocation is
// identified by a Ref, the byte offset of its payload within the arena, and
// is handed out as a payload slice clipped to the requested size. Headers
// that a strategy needs (stack links, block sizes) are encoded in the arena
// immediately before the payload; free-space bookkeeping lives in ordinary
// Go slices next to the allocator.
//
// Alignment is computed against the real address of the arena, so a payload
// aligned to 16 is 16-byte aligned in memory, not merely at an offset that
// is a multiple of 16.
//
// # Allocator Interface
//
//   - Alloc(size, alignment): reserve size bytes (alignment <= 0 means 4)
//   - Free(ref): release one allocation, where the strategy allows it
//   - Memory, Size, MemoryUsage, AllocationCount: arena and usage accessors
//
// # Implementations
//
// LinearAllocator: bump pointer, no per-allocation header
//
//   - O(1) allocation
//   - Free is unsupported; Clear resets the whole arena in O(1)
//
// StackAllocator: bump pointer with a header per allocation
//
//   - Strict LIFO: only the most recent allocation can be freed
//   - Freeing rewinds the pointer past the allocation and its padding
//
// GrowingStackAllocator: StackAllocator over reserved virtual memory
//
//   - Commits pages lazily, rounded up to the page size
//   - Clear decommits everything
//
// PoolAllocator: fixed-size slots
//
//   - O(1) allocation and free through a free-slot list
//   - Double frees are detected
//
// FreeListAllocator: variable-size blocks
//
//   - First-fit allocation with block splitting
//   - Free coalesces with both neighbours
//
// # Usage Example
//
//	mem := vmem.AlignedMalloc(64<<10, 64)
//	fl := alloc.NewFreeList(mem)
//
//	ref, payload, err := fl.Alloc(256, 16)
//	if err != nil {
//	    return err // errors.Is(err, alloc.ErrNoSpace)
//	}
//	copy(payload, data)
//
//	err = fl.Free(ref)
//
// # Typed Allocation
//
// New, NewArray, Delete and DeleteArray layer typed values over any
// Allocator:
//
//	v, err := alloc.New(fl, Vec3{X: 1})
//	arr, err := alloc.NewArray(fl, 5, Vec3{})
//	err = alloc.DeleteArray(fl, arr)
//
// Arena memory is invisible to the garbage collector, so typed helpers only
// accept types without Go pointers and report ErrPointerType otherwise.
//
// # Errors
//
// Failures are returned as sentinel errors (ErrNoSpace, ErrBadRef, ...)
// and never panic. Building with -tags memkitdebug turns unsupported
// operations such as LinearAllocator.Free into panics.
//
// # Thread Safety
//
// Allocator instances are not thread-safe and do no internal locking. Use
// one allocator per goroutine or synchronize access externally.
//
// # Related Packages
//
//   - github.com/joshuapare/memkit/vmem: heap and virtual memory primitives
//   - github.com/joshuapare/memkit/internal/format: alignment math and header layouts
package alloc
