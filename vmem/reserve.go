package vmem

import (
	"errors"
	"fmt"

	"github.com/joshuapare/memkit/internal/format"
)

var (
	// ErrReleased indicates an operation on a reservation after Release.
	ErrReleased = errors.New("vmem: reservation released")

	// ErrRange indicates a commit or decommit range outside the reservation.
	ErrRange = errors.New("vmem: range outside reservation")
)

// Reservation is a contiguous range of reserved address space. Pages inside
// it are inaccessible until committed; touching an uncommitted page faults.
//
// A Reservation is not safe for concurrent use.
type Reservation struct {
	mem       []byte
	pageSize  int
	committed []bool // per OS page
	nCommit   int    // committed page count
}

// Reserve reserves size bytes of address space, rounded up to the page size,
// without committing physical memory.
func Reserve(size int) (*Reservation, error) {
	if size <= 0 {
		return nil, fmt.Errorf("vmem: reserve %d bytes: %w", size, ErrRange)
	}
	ps := PageSize()
	size = format.AlignUp(size, ps)

	mem, err := sysReserve(size)
	if err != nil {
		return nil, fmt.Errorf("vmem: reserve %d bytes: %w", size, err)
	}
	return &Reservation{
		mem:       mem,
		pageSize:  ps,
		committed: make([]bool, size/ps),
	}, nil
}

// Bytes returns the whole reserved range. Only committed pages may be touched.
func (r *Reservation) Bytes() []byte {
	return r.mem
}

// Size returns the reserved size in bytes.
func (r *Reservation) Size() int {
	return len(r.mem)
}

// Committed returns the number of committed bytes.
func (r *Reservation) Committed() int {
	return r.nCommit * r.pageSize
}

// Commit backs [off, off+n) with physical pages, widened to page boundaries.
// Committing an already committed page is a no-op.
func (r *Reservation) Commit(off, n int) error {
	start, end, err := r.pageRange(off, n)
	if err != nil || start == end {
		return err
	}
	if err := sysCommit(r.mem[start:end]); err != nil {
		return fmt.Errorf("vmem: commit [%d,%d): %w", start, end, err)
	}
	for p := start / r.pageSize; p < end/r.pageSize; p++ {
		if !r.committed[p] {
			r.committed[p] = true
			r.nCommit++
		}
	}
	return nil
}

// Decommit returns the pages covering [off, off+n) to the reserved state.
// Their contents are discarded.
func (r *Reservation) Decommit(off, n int) error {
	start, end, err := r.pageRange(off, n)
	if err != nil || start == end {
		return err
	}
	if err := sysDecommit(r.mem[start:end]); err != nil {
		return fmt.Errorf("vmem: decommit [%d,%d): %w", start, end, err)
	}
	for p := start / r.pageSize; p < end/r.pageSize; p++ {
		if r.committed[p] {
			r.committed[p] = false
			r.nCommit--
		}
	}
	return nil
}

// Release gives the address range back to the operating system.
// Calling Release more than once is a no-op.
func (r *Reservation) Release() error {
	if r.mem == nil {
		return nil
	}
	mem := r.mem
	r.mem = nil
	r.committed = nil
	r.nCommit = 0
	if err := sysRelease(mem); err != nil {
		return fmt.Errorf("vmem: release: %w", err)
	}
	return nil
}

func (r *Reservation) pageRange(off, n int) (int, int, error) {
	if r.mem == nil {
		return 0, 0, ErrReleased
	}
	if off < 0 || n < 0 || off > len(r.mem) || n > len(r.mem)-off {
		return 0, 0, fmt.Errorf("vmem: [%d,+%d) of %d: %w", off, n, len(r.mem), ErrRange)
	}
	if n == 0 {
		return 0, 0, nil
	}
	return format.AlignDown(off, r.pageSize), format.AlignUp(off+n, r.pageSize), nil
}

// PageAlloc returns size bytes (rounded up to whole pages) of committed,
// page-aligned memory outside the Go heap, plus a cleanup func that
// releases it.
func PageAlloc(size int) ([]byte, func() error, error) {
	r, err := Reserve(size)
	if err != nil {
		return nil, nil, err
	}
	if err := r.Commit(0, r.Size()); err != nil {
		_ = r.Release()
		return nil, nil, err
	}
	return r.Bytes(), r.Release, nil
}
