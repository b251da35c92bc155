package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/testutil"
	"github.com/joshuapare/memkit/vmem"
)

// TestPool_SlotReuse tests exhaustion and that the last freed slot is reused first.
func TestPool_SlotReuse(t *testing.T) {
	pa, err := NewPool(24, 8, testutil.NewArena(t, 96))
	require.NoError(t, err)
	assert.Equal(t, 4, pa.Capacity())

	var refs []Ref
	for range 4 {
		ref, payload, err := pa.Alloc(24, 8)
		require.NoError(t, err)
		assert.Len(t, payload, 24)
		assert.Zero(t, addrOf(payload)%8)
		refs = append(refs, ref)
	}
	assert.Equal(t, []Ref{0, 24, 48, 72}, refs)
	assert.Equal(t, 96, pa.MemoryUsage())
	assert.Zero(t, pa.FreeSlots())

	_, _, err = pa.Alloc(24, 8)
	require.ErrorIs(t, err, ErrNoSpace)

	require.NoError(t, pa.Free(48))
	assert.Equal(t, 72, pa.MemoryUsage())
	assert.Equal(t, 3, pa.AllocationCount())

	ref, _, err := pa.Alloc(24, 8)
	require.NoError(t, err)
	assert.Equal(t, 48, ref)

	require.NoError(t, pa.Free(0))
	require.NoError(t, pa.Free(24))
	ref, _, err = pa.Alloc(8, 0)
	require.NoError(t, err)
	assert.Equal(t, 24, ref, "most recently freed slot first")
}

// TestPool_BadFrees tests that foreign, misaligned and repeated frees are rejected.
func TestPool_BadFrees(t *testing.T) {
	pa, err := NewPool(24, 8, testutil.NewArena(t, 96))
	require.NoError(t, err)

	ref, _, err := pa.Alloc(24, 8)
	require.NoError(t, err)

	require.ErrorIs(t, pa.Free(ref+5), ErrBadRef)
	require.ErrorIs(t, pa.Free(96), ErrBadRef)
	require.ErrorIs(t, pa.Free(-24), ErrBadRef)
	require.ErrorIs(t, pa.Free(24), ErrDoubleFree, "never allocated")

	require.NoError(t, pa.Free(ref))
	require.ErrorIs(t, pa.Free(ref), ErrDoubleFree)
	assert.Zero(t, pa.MemoryUsage())
	assert.Equal(t, 4, pa.FreeSlots())
}

// TestPool_RequestLimits tests that requests must fit the slot.
func TestPool_RequestLimits(t *testing.T) {
	pa, err := NewPool(24, 8, testutil.NewArena(t, 96))
	require.NoError(t, err)

	_, _, err = pa.Alloc(32, 8)
	require.ErrorIs(t, err, ErrBadSize)
	_, _, err = pa.Alloc(8, 16)
	require.ErrorIs(t, err, ErrBadAlignment)
	_, _, err = pa.Alloc(8, 6)
	require.ErrorIs(t, err, ErrBadAlignment)

	_, payload, err := pa.Alloc(4, 4)
	require.NoError(t, err)
	assert.Len(t, payload, 4)
	assert.Equal(t, 24, pa.MemoryUsage(), "a slot is charged whole")
}

// TestPool_Stride tests slot spacing when the object size is not a multiple
// of its alignment, and an arena that does not start aligned.
func TestPool_Stride(t *testing.T) {
	base := vmem.AlignedMalloc(70, 64)
	require.NotNil(t, base)
	mem := base[3:]

	pa, err := NewPool(10, 8, mem)
	require.NoError(t, err)
	assert.Equal(t, 3, pa.Capacity())

	var refs []Ref
	for range pa.Capacity() {
		ref, payload, err := pa.Alloc(10, 8)
		require.NoError(t, err)
		assert.Zero(t, addrOf(payload)%8)
		refs = append(refs, ref)
	}
	assert.Equal(t, []Ref{5, 21, 37}, refs)
}

// TestPool_Clear tests that Clear frees every slot.
func TestPool_Clear(t *testing.T) {
	pa, err := NewPool(16, 16, testutil.NewArena(t, 64))
	require.NoError(t, err)

	for range 2 {
		_, _, err := pa.Alloc(16, 16)
		require.NoError(t, err)
	}
	pa.Clear()
	assert.Zero(t, pa.MemoryUsage())
	assert.Zero(t, pa.AllocationCount())
	assert.Equal(t, 4, pa.FreeSlots())

	ref, _, err := pa.Alloc(16, 16)
	require.NoError(t, err)
	assert.Zero(t, ref)
}

// TestPool_Construction tests constructor validation.
func TestPool_Construction(t *testing.T) {
	mem := testutil.NewArena(t, 64)

	_, err := NewPool(0, 8, mem)
	require.ErrorIs(t, err, ErrBadSize)
	_, err = NewPool(8, 24, mem)
	require.ErrorIs(t, err, ErrBadAlignment)

	pa, err := NewPool(8, 0, mem)
	require.NoError(t, err)
	assert.Equal(t, DefaultAlignment, pa.ObjectAlignment())
	assert.Equal(t, 8, pa.ObjectSize())
	assert.Equal(t, 8, pa.Capacity())

	// An arena too small for one slot has no capacity.
	small, err := NewPool(128, 8, mem)
	require.NoError(t, err)
	assert.Zero(t, small.Capacity())
	_, _, err = small.Alloc(8, 8)
	require.ErrorIs(t, err, ErrNoSpace)
}
