// Package format describes the bookkeeping that allocators embed directly in
// arena memory: alignment arithmetic, header layouts, and the little-endian
// encoding used to read and write them. Nothing here allocates; every helper
// operates on a caller-provided byte slice.
package format

const (
	// StackHeaderSize is the size of the header written immediately before
	// every stack allocation.
	// Layout (little-endian):
	//   +0x00  int64   previous top allocation (ref), -1 when none
	//   +0x08  uint32  adjustment (padding bytes before the payload)
	//   +0x0C  4 bytes reserved
	StackHeaderSize = 0x10

	// StackPrevOffset is the offset of the previous-allocation link.
	StackPrevOffset = 0x00

	// StackAdjustmentOffset is the offset of the adjustment field.
	StackAdjustmentOffset = 0x08

	// BlockHeaderSize is the size of the header written immediately before
	// every free-list allocation.
	// Layout (little-endian):
	//   +0x00  uint64  block size (adjustment + payload, header included)
	//   +0x08  uint32  adjustment
	//   +0x0C  4 bytes reserved
	BlockHeaderSize = 0x10

	// BlockSizeOffset is the offset of the block size field.
	BlockSizeOffset = 0x00

	// BlockAdjustmentOffset is the offset of the adjustment field.
	BlockAdjustmentOffset = 0x08

	// ArrayLengthSize is the number of bytes used to store a typed array's
	// element count immediately before its first element.
	ArrayLengthSize = 8

	// DefaultPageSize is the commit granularity used when none is given.
	DefaultPageSize = 0x1000
)
