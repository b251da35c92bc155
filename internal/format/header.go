package format

import "github.com/joshuapare/memkit/internal/buf"

// StackHeader is the decoded form of a stack allocation header.
type StackHeader struct {
	Prev       int64  // ref of the previous top allocation, -1 if none
	Adjustment uint32 // bytes between the allocation start and the payload
}

// PutStackHeader encodes h into the StackHeaderSize bytes ending at payload.
func PutStackHeader(b []byte, payload int, h StackHeader) error {
	off := payload - StackHeaderSize
	if !buf.Has(b, off, StackHeaderSize) {
		return ErrTruncated
	}
	PutI64(b, off+StackPrevOffset, h.Prev)
	PutU32(b, off+StackAdjustmentOffset, h.Adjustment)
	PutU32(b, off+StackAdjustmentOffset+4, 0)
	return nil
}

// ReadStackHeader decodes the stack header preceding payload.
func ReadStackHeader(b []byte, payload int) (StackHeader, error) {
	off := payload - StackHeaderSize
	if !buf.Has(b, off, StackHeaderSize) {
		return StackHeader{}, ErrTruncated
	}
	return StackHeader{
		Prev:       ReadI64(b, off+StackPrevOffset),
		Adjustment: ReadU32(b, off+StackAdjustmentOffset),
	}, nil
}

// BlockHeader is the decoded form of a free-list allocation header.
type BlockHeader struct {
	Size       uint64 // whole block: adjustment plus payload
	Adjustment uint32 // bytes between the block start and the payload
}

// PutBlockHeader encodes h into the BlockHeaderSize bytes ending at payload.
func PutBlockHeader(b []byte, payload int, h BlockHeader) error {
	off := payload - BlockHeaderSize
	if !buf.Has(b, off, BlockHeaderSize) {
		return ErrTruncated
	}
	PutU64(b, off+BlockSizeOffset, h.Size)
	PutU32(b, off+BlockAdjustmentOffset, h.Adjustment)
	PutU32(b, off+BlockAdjustmentOffset+4, 0)
	return nil
}

// ReadBlockHeader decodes the free-list header preceding payload.
func ReadBlockHeader(b []byte, payload int) (BlockHeader, error) {
	off := payload - BlockHeaderSize
	if !buf.Has(b, off, BlockHeaderSize) {
		return BlockHeader{}, ErrTruncated
	}
	return BlockHeader{
		Size:       ReadU64(b, off+BlockSizeOffset),
		Adjustment: ReadU32(b, off+BlockAdjustmentOffset),
	}, nil
}
