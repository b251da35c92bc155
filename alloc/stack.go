package alloc

import (
	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
)

// stack is the LIFO bookkeeping shared by StackAllocator and
// GrowingStackAllocator. Every allocation is preceded by a
// format.StackHeader linking it to the allocation below it.
type stack struct {
	region

	cur int // offset one past the top allocation
	top Ref // most recent allocation, NilRef when empty

	// noSpace is returned when the arena cannot hold a request.
	noSpace error
}

func newStack(mem []byte, noSpace error) stack {
	return stack{region: newRegion(mem), top: NilRef, noSpace: noSpace}
}

// push places an allocation on top of the stack. ensure, when non-nil, is
// called with the end offset of the new allocation before anything is
// written so the caller can make that memory accessible.
func (s *stack) push(name string, size, alignment int, ensure func(end int) error) (Ref, []byte, error) {
	s.stats.AllocCalls++

	alignment, err := normalize(size, alignment)
	if err != nil {
		s.stats.Failed++
		return NilRef, nil, err
	}

	adj, err := s.adjustment(s.cur, alignment, format.StackHeaderSize)
	if err != nil {
		s.stats.Failed++
		return NilRef, nil, err
	}
	if !s.fits(adj, size) {
		s.stats.Failed++
		if logger.DebugEnabled() {
			logger.Debug(name+": out of space", "size", size, "align", alignment,
				"used", s.used, "capacity", len(s.mem))
		}
		return NilRef, nil, s.noSpace
	}

	ref := s.cur + adj
	if ensure != nil {
		if err := ensure(ref + size); err != nil {
			s.stats.Failed++
			return NilRef, nil, err
		}
	}

	hdr := format.StackHeader{Prev: int64(s.top), Adjustment: uint32(adj)}
	if err := format.PutStackHeader(s.mem, ref, hdr); err != nil {
		s.stats.Failed++
		return NilRef, nil, ErrBadRef
	}

	s.top = ref
	s.cur = ref + size
	return ref, s.grant(ref, adj+size, size), nil
}

// pop rewinds the stack past the top allocation.
func (s *stack) pop(ref Ref) error {
	s.stats.FreeCalls++

	hdr, err := s.checkTop(ref)
	if err != nil {
		return err
	}
	adj := int(hdr.Adjustment)

	s.release((s.cur - ref) + adj)
	s.cur = ref - adj
	s.top = Ref(hdr.Prev)
	return nil
}

// checkTop validates that ref is the live top allocation and returns its
// header. It changes nothing.
func (s *stack) checkTop(ref Ref) (format.StackHeader, error) {
	if s.count == 0 || ref < format.StackHeaderSize || ref > s.cur {
		return format.StackHeader{}, ErrBadRef
	}
	if ref != s.top {
		return format.StackHeader{}, ErrNotTop
	}

	hdr, err := format.ReadStackHeader(s.mem, ref)
	if err != nil || int(hdr.Adjustment) > ref {
		return format.StackHeader{}, ErrBadRef
	}
	return hdr, nil
}

func (s *stack) canFree(ref Ref) error {
	_, err := s.checkTop(ref)
	return err
}

// rewind drops every allocation.
func (s *stack) rewind() {
	s.reset()
	s.cur = 0
	s.top = NilRef
}

// Top returns the most recent live allocation, or NilRef when empty.
func (s *stack) Top() Ref { return s.top }

// StackAllocator is a LIFO bump allocator. Each allocation stores a header
// with its alignment padding and a link to the previous top, so allocations
// can be freed one at a time in exact reverse order.
//
// Freeing anything other than the current top returns ErrNotTop and leaves
// the stack untouched.
type StackAllocator struct {
	stack
}

// NewStack creates a StackAllocator over mem.
func NewStack(mem []byte) *StackAllocator {
	return &StackAllocator{stack: newStack(mem, ErrNoSpace)}
}

// Alloc pushes a new allocation onto the stack.
func (sa *StackAllocator) Alloc(size, alignment int) (Ref, []byte, error) {
	return sa.push("stack", size, alignment, nil)
}

// Free pops the top allocation, which must be ref.
func (sa *StackAllocator) Free(ref Ref) error {
	return sa.pop(ref)
}

// Compile-time interface check
var _ Allocator = (*StackAllocator)(nil)
