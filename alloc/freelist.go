package alloc

import (
	"slices"
	"sort"

	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
)

// FreeListAllocator is a general-purpose variable-size allocator. Free space
// is tracked as an address-ordered list of blocks outside the arena;
// allocation is first-fit and splits the chosen block, and Free merges the
// released block with adjacent free neighbours on both sides.
//
// Each allocation is preceded by a format.BlockHeader recording the whole
// block size and its alignment padding, so Free can rebuild the block bounds.
type FreeListAllocator struct {
	region

	// free holds disjoint, non-adjacent blocks sorted by offset.
	free []Block
}

// NewFreeList creates a FreeListAllocator with the whole of mem free.
func NewFreeList(mem []byte) *FreeListAllocator {
	fl := &FreeListAllocator{region: newRegion(mem)}
	if len(mem) > 0 {
		fl.free = []Block{{Off: 0, Size: len(mem)}}
	}
	return fl
}

// Alloc takes the first free block that fits. A block whose remainder would
// be no larger than a header is consumed whole; otherwise it is split and the
// tail stays free.
func (fl *FreeListAllocator) Alloc(size, alignment int) (Ref, []byte, error) {
	fl.stats.AllocCalls++

	alignment, err := normalize(size, alignment)
	if err != nil {
		fl.stats.Failed++
		return NilRef, nil, err
	}

	for i, blk := range fl.free {
		adj, err := fl.adjustment(blk.Off, alignment, format.BlockHeaderSize)
		if err != nil {
			fl.stats.Failed++
			return NilRef, nil, err
		}
		if adj > blk.Size || size > blk.Size-adj {
			continue
		}

		required := adj + size
		if blk.Size-required <= format.BlockHeaderSize {
			required = blk.Size
			fl.free = slices.Delete(fl.free, i, i+1)
		} else {
			fl.free[i] = Block{Off: blk.Off + required, Size: blk.Size - required}
			fl.stats.Splits++
		}

		ref := blk.Off + adj
		hdr := format.BlockHeader{Size: uint64(required), Adjustment: uint32(adj)}
		if err := format.PutBlockHeader(fl.mem, ref, hdr); err != nil {
			fl.stats.Failed++
			return NilRef, nil, ErrBadRef
		}
		return ref, fl.grant(ref, required, size), nil
	}

	fl.stats.Failed++
	if logger.DebugEnabled() {
		logger.Debug("freelist: no fit", "size", size, "align", alignment,
			"used", fl.used, "capacity", len(fl.mem), "free_blocks", len(fl.free),
			"largest", fl.LargestFree())
	}
	return NilRef, nil, ErrNoSpace
}

// Free returns the block behind ref to the free list, coalescing it with the
// free blocks that end where it starts and start where it ends.
func (fl *FreeListAllocator) Free(ref Ref) error {
	fl.stats.FreeCalls++

	start, size, i, err := fl.locate(ref)
	if err != nil {
		return err
	}
	end := start + size

	mergePrev := i > 0 && fl.free[i-1].End() == start
	mergeNext := i < len(fl.free) && fl.free[i].Off == end

	switch {
	case mergePrev && mergeNext:
		fl.free[i-1].Size += size + fl.free[i].Size
		fl.free = slices.Delete(fl.free, i, i+1)
		fl.stats.CoalesceBackward++
		fl.stats.CoalesceForward++
	case mergePrev:
		fl.free[i-1].Size += size
		fl.stats.CoalesceBackward++
	case mergeNext:
		fl.free[i] = Block{Off: start, Size: size + fl.free[i].Size}
		fl.stats.CoalesceForward++
	default:
		fl.free = slices.Insert(fl.free, i, Block{Off: start, Size: size})
	}

	fl.release(size)
	return nil
}

// locate validates the allocated block behind ref and returns its extent and
// the index of the first free block at or after its end. It changes nothing.
func (fl *FreeListAllocator) locate(ref Ref) (start, size, i int, err error) {
	if fl.count == 0 || ref < format.BlockHeaderSize || ref > len(fl.mem) {
		return 0, 0, 0, ErrBadRef
	}
	hdr, err := format.ReadBlockHeader(fl.mem, ref)
	if err != nil {
		return 0, 0, 0, ErrBadRef
	}

	adj := int(hdr.Adjustment)
	if adj < format.BlockHeaderSize || adj > ref || hdr.Size > uint64(len(fl.mem)) {
		return 0, 0, 0, ErrBadRef
	}
	start = ref - adj
	size = int(hdr.Size)
	end := start + size
	if size < adj || end > len(fl.mem) {
		return 0, 0, 0, ErrBadRef
	}

	i = sort.Search(len(fl.free), func(i int) bool { return fl.free[i].Off >= end })
	if i > 0 && fl.free[i-1].End() > start {
		return 0, 0, 0, ErrDoubleFree
	}
	return start, size, i, nil
}

func (fl *FreeListAllocator) canFree(ref Ref) error {
	_, _, _, err := fl.locate(ref)
	return err
}

// FreeBlocks returns a copy of the free list in address order.
func (fl *FreeListAllocator) FreeBlocks() []Block {
	return slices.Clone(fl.free)
}

// LargestFree returns the size of the largest free block.
func (fl *FreeListAllocator) LargestFree() int {
	largest := 0
	for _, b := range fl.free {
		largest = max(largest, b.Size)
	}
	return largest
}

// Compile-time interface check
var _ Allocator = (*FreeListAllocator)(nil)
