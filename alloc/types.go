package alloc

// Ref identifies an allocation by the byte offset of its payload from the
// start of the allocator's arena.
type Ref = int

// NilRef is returned alongside an error when an allocation fails.
const NilRef Ref = -1

// DefaultAlignment is used when Alloc is called with alignment <= 0.
const DefaultAlignment = 4

// Allocator is the contract shared by every allocation strategy.
//
// Implementations:
//   - LinearAllocator: bump allocator, bulk reset only
//   - StackAllocator: LIFO bump allocator with per-allocation headers
//   - GrowingStackAllocator: stack over reserved virtual memory, commits pages lazily
//   - PoolAllocator: fixed-size slots
//   - FreeListAllocator: first-fit variable-size blocks with coalescing
//
// Allocators manage memory they do not own: the arena passed at construction
// must outlive the allocator, and no two allocators may share one arena.
type Allocator interface {
	// Alloc reserves size bytes aligned to alignment (DefaultAlignment when
	// alignment <= 0). It returns the payload's ref and a slice of exactly
	// size bytes whose capacity is clipped to the payload.
	Alloc(size, alignment int) (Ref, []byte, error)

	// Free releases the allocation identified by ref.
	Free(ref Ref) error

	// Memory returns the arena the allocator manages.
	Memory() []byte

	// Size returns the arena capacity in bytes.
	Size() int

	// MemoryUsage returns the bytes attributed to live allocations,
	// including header and alignment overhead.
	MemoryUsage() int

	// AllocationCount returns the number of live allocations.
	AllocationCount() int
}

// Resetter is implemented by allocators that can release every allocation at once.
type Resetter interface {
	Clear()
}

// Block is a free range of an arena, used by FreeListAllocator.
type Block struct {
	Off  int // offset of the first byte
	Size int // length in bytes
}

// End returns the offset one past the block.
func (b Block) End() int {
	return b.Off + b.Size
}

// Stats holds allocator counters for tests and instrumentation.
type Stats struct {
	AllocCalls       int // Total Alloc() calls
	FreeCalls        int // Total Free() calls
	Failed           int // Alloc() calls that returned an error
	PeakUsage        int // High-water mark of MemoryUsage()
	Splits           int // Free blocks split on allocation
	CoalesceForward  int // Frees merged with the following free block
	CoalesceBackward int // Frees merged with the preceding free block
	Commits          int // Page commit calls
	Decommits        int // Page decommit calls
	CommittedBytes   int // Bytes currently committed
}

// Allocate allocates size bytes with DefaultAlignment.
func Allocate(a Allocator, size int) (Ref, []byte, error) {
	return a.Alloc(size, DefaultAlignment)
}

// AssertionsEnabled reports whether the package was built with the
// memkitdebug tag, which turns misuse into panics.
func AssertionsEnabled() bool {
	return assertions
}
