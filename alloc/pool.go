package alloc

import (
	"fmt"
	"math"

	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/logger"
)

// PoolAllocator hands out fixed-size slots. Free slots form a singly linked
// list threaded through slot indices; Alloc pops the head and Free pushes
// onto it, so the most recently freed slot is reused first. Both are O(1).
type PoolAllocator struct {
	region

	objectSize      int
	objectAlignment int
	stride          int // distance between slots: objectSize rounded up to objectAlignment
	first           int // offset of slot 0
	numObjects      int

	next []int32  // next free slot per slot index, -1 terminates
	live []uint64 // allocated-slot bitmap
	head int32    // first free slot, -1 when exhausted
}

// NewPool creates a PoolAllocator of objectSize-byte slots aligned to
// objectAlignment over mem.
func NewPool(objectSize, objectAlignment int, mem []byte) (*PoolAllocator, error) {
	if objectSize <= 0 {
		return nil, fmt.Errorf("pool: object size %d: %w", objectSize, ErrBadSize)
	}
	if objectAlignment <= 0 {
		objectAlignment = DefaultAlignment
	}
	if !format.IsPowerOfTwo(uintptr(objectAlignment)) {
		return nil, fmt.Errorf("pool: object alignment %d: %w", objectAlignment, ErrBadAlignment)
	}

	pa := &PoolAllocator{
		region:          newRegion(mem),
		objectSize:      objectSize,
		objectAlignment: objectAlignment,
		stride:          format.AlignUp(objectSize, objectAlignment),
	}
	pa.Clear()
	return pa, nil
}

// Clear frees every slot and rebuilds the free list in address order.
// Cost is O(number of slots).
func (pa *PoolAllocator) Clear() {
	pa.reset()

	pa.first = int(format.AlignForwardAdjustment(pa.addr, uintptr(pa.objectAlignment)))
	n := 0
	if pa.first < len(pa.mem) {
		n = (len(pa.mem) - pa.first) / pa.stride
	}
	n = min(n, math.MaxInt32)
	pa.numObjects = n

	if cap(pa.next) >= n {
		pa.next = pa.next[:n]
	} else {
		pa.next = make([]int32, n)
	}
	for i := range n - 1 {
		pa.next[i] = int32(i + 1)
	}
	if n > 0 {
		pa.next[n-1] = -1
		pa.head = 0
	} else {
		pa.head = -1
	}

	words := (n + 63) / 64
	if cap(pa.live) >= words {
		pa.live = pa.live[:words]
		clear(pa.live)
	} else {
		pa.live = make([]uint64, words)
	}
}

// Alloc pops a free slot. size and alignment only need to fit the slot:
// size must not exceed the object size and alignment must not exceed the
// object alignment (alignment <= 0 means the object alignment).
func (pa *PoolAllocator) Alloc(size, alignment int) (Ref, []byte, error) {
	pa.stats.AllocCalls++

	if alignment <= 0 {
		alignment = pa.objectAlignment
	}
	alignment, err := normalize(size, alignment)
	if err != nil {
		pa.stats.Failed++
		return NilRef, nil, err
	}
	if size > pa.objectSize {
		pa.stats.Failed++
		return NilRef, nil, ErrBadSize
	}
	if alignment > pa.objectAlignment {
		pa.stats.Failed++
		return NilRef, nil, ErrBadAlignment
	}

	if pa.head < 0 {
		pa.stats.Failed++
		logger.Debug("pool: exhausted", "slots", pa.numObjects, "object_size", pa.objectSize)
		return NilRef, nil, ErrNoSpace
	}

	idx := int(pa.head)
	pa.head = pa.next[idx]
	pa.next[idx] = -1
	pa.live[idx/64] |= 1 << (idx % 64)

	ref := pa.first + idx*pa.stride
	return ref, pa.grant(ref, pa.objectSize, size), nil
}

// Free pushes the slot at ref back onto the free list.
func (pa *PoolAllocator) Free(ref Ref) error {
	pa.stats.FreeCalls++

	idx, err := pa.liveSlot(ref)
	if err != nil {
		return err
	}
	pa.live[idx/64] &^= uint64(1) << (idx % 64)

	pa.next[idx] = pa.head
	pa.head = int32(idx)
	pa.release(pa.objectSize)
	return nil
}

// liveSlot returns the index of the allocated slot at ref.
func (pa *PoolAllocator) liveSlot(ref Ref) (int, error) {
	idx, ok := pa.slotIndex(ref)
	if !ok {
		return 0, ErrBadRef
	}
	if pa.live[idx/64]&(uint64(1)<<(idx%64)) == 0 {
		return 0, ErrDoubleFree
	}
	return idx, nil
}

func (pa *PoolAllocator) canFree(ref Ref) error {
	_, err := pa.liveSlot(ref)
	return err
}

func (pa *PoolAllocator) slotIndex(ref Ref) (int, bool) {
	rel := ref - pa.first
	if rel < 0 || rel%pa.stride != 0 {
		return 0, false
	}
	idx := rel / pa.stride
	return idx, idx < pa.numObjects
}

// ObjectSize returns the slot payload size.
func (pa *PoolAllocator) ObjectSize() int { return pa.objectSize }

// ObjectAlignment returns the alignment every slot satisfies.
func (pa *PoolAllocator) ObjectAlignment() int { return pa.objectAlignment }

// Capacity returns the total number of slots.
func (pa *PoolAllocator) Capacity() int { return pa.numObjects }

// FreeSlots returns the number of unallocated slots.
func (pa *PoolAllocator) FreeSlots() int { return pa.numObjects - pa.count }

// Compile-time interface check
var (
	_ Allocator = (*PoolAllocator)(nil)
	_ Resetter  = (*PoolAllocator)(nil)
)
