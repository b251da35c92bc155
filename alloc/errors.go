package alloc

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSpace indicates that the arena has no room left for the request.
	ErrNoSpace = errors.New("alloc: no space left in arena")

	// ErrReservationExhausted indicates a growing stack could not commit more
	// pages inside its reserved range. It matches ErrNoSpace with errors.Is.
	ErrReservationExhausted = fmt.Errorf("%w: reservation exhausted", ErrNoSpace)

	// ErrBadRef indicates a ref that was not returned by this allocator or is out of bounds.
	ErrBadRef = errors.New("alloc: bad allocation reference")

	// ErrBadSize indicates a negative, zero-sized or overflowing request.
	ErrBadSize = errors.New("alloc: bad allocation size")

	// ErrBadAlignment indicates an alignment that is not a power of two or
	// that the allocator cannot honour.
	ErrBadAlignment = errors.New("alloc: alignment must be a power of two")

	// ErrFreeUnsupported indicates Free was called on an allocator that only
	// reclaims memory in bulk.
	ErrFreeUnsupported = errors.New("alloc: free not supported, use Clear")

	// ErrNotTop indicates a stack free that does not target the most recent allocation.
	ErrNotTop = errors.New("alloc: stack free out of LIFO order")

	// ErrDoubleFree indicates memory that is already free was freed again.
	ErrDoubleFree = errors.New("alloc: double free")

	// ErrPointerType indicates a typed allocation of a type containing Go
	// pointers, which the garbage collector cannot see inside an arena.
	ErrPointerType = errors.New("alloc: type contains pointers")
)
