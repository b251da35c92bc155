// Package vmem provides the raw memory primitives allocators are built on:
// plain and over-aligned heap blocks, and page-granular virtual memory
// (reserve address space, commit and decommit pages, release).
//
// Heap blocks are ordinary Go byte slices owned by the garbage collector.
// Virtual memory comes from the operating system and lives outside the Go
// heap until Release is called.
package vmem

import (
	"os"
	"unsafe"

	"github.com/joshuapare/memkit/internal/format"
)

// PageSize returns the operating system's page size.
func PageSize() int {
	return os.Getpagesize()
}

// Malloc returns a zeroed block of size bytes.
func Malloc(size int) []byte {
	if size < 0 {
		return nil
	}
	return make([]byte, size)
}

// Realloc resizes b to size bytes, preserving its prefix. The block is
// reused in place when its capacity allows.
func Realloc(b []byte, size int) []byte {
	if size < 0 {
		return nil
	}
	if size <= cap(b) {
		return b[:size]
	}
	nb := make([]byte, size)
	copy(nb, b)
	return nb
}

// Free scrubs b. The backing array is reclaimed once the caller drops its
// last reference.
func Free(b []byte) {
	clear(b)
}

// AlignedMalloc returns a zeroed block of size bytes whose first byte sits at
// an address that is a multiple of alignment. alignment must be a power of two.
func AlignedMalloc(size, alignment int) []byte {
	if size < 0 || !format.IsPowerOfTwo(uintptr(alignment)) {
		return nil
	}
	raw := make([]byte, size+alignment)
	off := int(format.AlignForwardAdjustment(uintptr(unsafe.Pointer(&raw[0])), uintptr(alignment)))
	return raw[off : off+size : off+size]
}

// AlignedRealloc resizes an aligned block, preserving its prefix and alignment.
func AlignedRealloc(b []byte, size, alignment int) []byte {
	if size <= cap(b) && len(b) > 0 && IsAligned(b, alignment) {
		return b[:size]
	}
	nb := AlignedMalloc(size, alignment)
	if nb == nil {
		return nil
	}
	copy(nb, b)
	return nb
}

// FreeAligned scrubs an aligned block.
func FreeAligned(b []byte) {
	clear(b)
}

// IsAligned reports whether the first byte of b is aligned to alignment.
// An empty slice is never aligned.
func IsAligned(b []byte, alignment int) bool {
	if len(b) == 0 || alignment <= 0 {
		return false
	}
	return uintptr(unsafe.Pointer(&b[0]))%uintptr(alignment) == 0
}
