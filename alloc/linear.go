package alloc

import (
	"github.com/joshuapare/memkit/internal/logger"
)

// LinearAllocator is a monotonic bump allocator. Allocations carry no header
// and cannot be freed individually; Clear reclaims the whole arena in O(1).
//
// Lifecycle: empty -> (Alloc)* -> full, back to empty only via Clear.
type LinearAllocator struct {
	region

	// cur is the bump pointer: the offset where the next allocation starts.
	cur int
}

// NewLinear creates a LinearAllocator over mem.
func NewLinear(mem []byte) *LinearAllocator {
	return &LinearAllocator{region: newRegion(mem)}
}

// Alloc bumps the pointer past the alignment padding and size bytes.
func (la *LinearAllocator) Alloc(size, alignment int) (Ref, []byte, error) {
	la.stats.AllocCalls++

	alignment, err := normalize(size, alignment)
	if err != nil {
		la.stats.Failed++
		return NilRef, nil, err
	}

	adj, err := la.adjustment(la.cur, alignment, 0)
	if err != nil {
		la.stats.Failed++
		return NilRef, nil, err
	}
	if !la.fits(adj, size) {
		la.stats.Failed++
		if logger.DebugEnabled() {
			logger.Debug("linear: out of space", "size", size, "align", alignment,
				"used", la.used, "capacity", len(la.mem))
		}
		return NilRef, nil, ErrNoSpace
	}

	ref := la.cur + adj
	la.cur = ref + size
	return ref, la.grant(ref, adj+size, size), nil
}

// Free is not supported. Development builds (-tags memkitdebug) panic;
// release builds return ErrFreeUnsupported and change nothing.
func (la *LinearAllocator) Free(ref Ref) error {
	la.stats.FreeCalls++
	assertf(false, "alloc: LinearAllocator.Free(%d) is not supported, use Clear", ref)
	return ErrFreeUnsupported
}

func (la *LinearAllocator) canFree(Ref) error { return ErrFreeUnsupported }

// Clear releases every allocation at once.
func (la *LinearAllocator) Clear() {
	la.reset()
	la.cur = 0
}

// Compile-time interface check
var (
	_ Allocator = (*LinearAllocator)(nil)
	_ Resetter  = (*LinearAllocator)(nil)
)
