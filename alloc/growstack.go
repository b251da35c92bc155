package alloc

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
)

// Committer is a reserved address range whose pages can be committed and
// decommitted on demand. *vmem.Reservation implements it.
type Committer interface {
	// Bytes returns the whole reserved range.
	Bytes() []byte
	// Commit makes [off, off+n) readable and writable.
	Commit(off, n int) error
	// Decommit returns [off, off+n) to the reserved state.
	Decommit(off, n int) error
}

// GrowingStackAllocator is a stack allocator over a reserved but uncommitted
// virtual address range. Physical pages are committed lazily, a whole number
// of pages at a time, as the top of the stack crosses the committed boundary.
// Free never decommits; Clear decommits everything.
//
// Suited to scratch memory whose peak size is unpredictable but whose
// lifetime is short, e.g. per-frame temporaries.
type GrowingStackAllocator struct {
	stack

	c        Committer
	pageSize int

	// committedEnd is the boundary of committed memory; [0, committedEnd)
	// is accessible. Starts at 0: nothing committed.
	committedEnd int
}

// NewGrowingStack creates a GrowingStackAllocator over the range reserved by c.
// pageSize is the commit granularity; 0 selects format.DefaultPageSize.
func NewGrowingStack(c Committer, pageSize int) (*GrowingStackAllocator, error) {
	if pageSize == 0 {
		pageSize = format.DefaultPageSize
	}
	if pageSize < 0 || !format.IsPowerOfTwo(uintptr(pageSize)) {
		return nil, fmt.Errorf("growing stack: page size %d: %w", pageSize, ErrBadAlignment)
	}
	return &GrowingStackAllocator{
		stack:    newStack(c.Bytes(), ErrReservationExhausted),
		c:        c,
		pageSize: pageSize,
	}, nil
}

// Alloc pushes a new allocation, committing pages first when it would
// extend past the committed boundary.
func (gs *GrowingStackAllocator) Alloc(size, alignment int) (Ref, []byte, error) {
	return gs.push("growing stack", size, alignment, gs.ensureCommitted)
}

// Free pops the top allocation, which must be ref. Pages stay committed.
func (gs *GrowingStackAllocator) Free(ref Ref) error {
	return gs.pop(ref)
}

// Clear drops every allocation and decommits all committed pages, returning
// the range to its reserved-but-uncommitted state.
func (gs *GrowingStackAllocator) Clear() {
	gs.rewind()
	if gs.committedEnd == 0 {
		return
	}
	if err := gs.c.Decommit(0, gs.committedEnd); err != nil {
		// Pages stay accessible; the next commit over them is harmless.
		logger.Warn("growing stack: decommit failed", "bytes", gs.committedEnd, "err", err)
	} else {
		gs.stats.Decommits++
	}
	logger.Debug("growing stack: cleared", "decommitted", gs.committedEnd)
	gs.committedEnd = 0
	gs.stats.CommittedBytes = 0
}

// Committed returns the number of committed bytes.
func (gs *GrowingStackAllocator) Committed() int {
	return gs.committedEnd
}

// PageSize returns the commit granularity.
func (gs *GrowingStackAllocator) PageSize() int {
	return gs.pageSize
}

// ensureCommitted commits whole pages until end lies inside committed memory.
func (gs *GrowingStackAllocator) ensureCommitted(end int) error {
	if end <= gs.committedEnd {
		return nil
	}

	extra := format.AlignUp(end-gs.committedEnd, gs.pageSize)
	if extra > len(gs.mem)-gs.committedEnd {
		// A trailing partial page is still usable.
		extra = len(gs.mem) - gs.committedEnd
	}
	if gs.committedEnd+extra < end {
		return ErrReservationExhausted
	}

	if err := gs.c.Commit(gs.committedEnd, extra); err != nil {
		logger.Warn("growing stack: commit failed", "offset", gs.committedEnd, "bytes", extra, "err", err)
		return fmt.Errorf("growing stack: commit %d bytes: %w: %w", extra, ErrNoSpace, err)
	}
	if logger.DebugEnabled() {
		logger.Debug("growing stack: committed", "offset", gs.committedEnd, "bytes", extra,
			"pages", extra/gs.pageSize)
	}
	gs.committedEnd += extra
	gs.stats.Commits++
	gs.stats.CommittedBytes = gs.committedEnd
	return nil
}

// Compile-time interface check
var (
	_ Allocator = (*GrowingStackAllocator)(nil)
	_ Resetter  = (*GrowingStackAllocator)(nil)
)
