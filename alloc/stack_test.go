package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/testutil"
)

// TestStack_LIFORoundTrip tests that freeing in reverse order restores usage
// exactly and that the arena is reused from the bottom afterwards.
func TestStack_LIFORoundTrip(t *testing.T) {
	sa := NewStack(testutil.NewArena(t, 256))

	a, pa, err := sa.Alloc(32, 8)
	require.NoError(t, err)
	assert.Equal(t, 16, a, "header occupies the first 16 bytes")
	assert.Equal(t, 48, sa.MemoryUsage())

	b, pb, err := sa.Alloc(10, 4)
	require.NoError(t, err)
	assert.Equal(t, 64, b)
	assert.Equal(t, 74, sa.MemoryUsage())

	c, pc, err := sa.Alloc(8, 16)
	require.NoError(t, err)
	assert.Equal(t, 96, c)
	assert.Zero(t, addrOf(pc)%16)
	assert.Equal(t, 104, sa.MemoryUsage())
	assert.Equal(t, c, sa.Top())

	testutil.Fill(pa, 0xA1)
	testutil.Fill(pb, 0xB2)
	testutil.Fill(pc, 0xC3)

	hdr, err := format.ReadStackHeader(sa.Memory(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(b), hdr.Prev)
	assert.Equal(t, uint32(22), hdr.Adjustment)

	require.NoError(t, sa.Free(c))
	assert.Equal(t, 74, sa.MemoryUsage())
	assert.Equal(t, b, sa.Top())
	testutil.RequirePattern(t, pb, 0xB2)

	require.NoError(t, sa.Free(b))
	assert.Equal(t, 48, sa.MemoryUsage())
	testutil.RequirePattern(t, pa, 0xA1)

	require.NoError(t, sa.Free(a))
	assert.Zero(t, sa.MemoryUsage())
	assert.Zero(t, sa.AllocationCount())
	assert.Equal(t, NilRef, sa.Top())

	again, _, err := sa.Alloc(32, 8)
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

// TestStack_OutOfOrderFree tests that only the top allocation can be freed.
func TestStack_OutOfOrderFree(t *testing.T) {
	sa := NewStack(testutil.NewArena(t, 128))

	a, _, err := sa.Alloc(8, 8)
	require.NoError(t, err)
	b, _, err := sa.Alloc(8, 8)
	require.NoError(t, err)

	usage := sa.MemoryUsage()
	require.ErrorIs(t, sa.Free(a), ErrNotTop)
	assert.Equal(t, usage, sa.MemoryUsage())
	assert.Equal(t, 2, sa.AllocationCount())
	assert.Equal(t, b, sa.Top())

	require.ErrorIs(t, sa.Free(999), ErrBadRef)
	require.ErrorIs(t, sa.Free(-1), ErrBadRef)

	require.NoError(t, sa.Free(b))
	require.NoError(t, sa.Free(a))
	require.ErrorIs(t, sa.Free(a), ErrBadRef, "empty stack has nothing to free")
}

// TestStack_Exhaustion tests that the header counts against capacity.
func TestStack_Exhaustion(t *testing.T) {
	sa := NewStack(testutil.NewArena(t, 64))

	_, _, err := sa.Alloc(49, 4)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Zero(t, sa.MemoryUsage())

	ref, _, err := sa.Alloc(48, 4)
	require.NoError(t, err)
	assert.Equal(t, 16, ref)
	assert.Equal(t, 64, sa.MemoryUsage())

	_, _, err = sa.Alloc(0, 4)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, 1, sa.AllocationCount())
	assert.Equal(t, 64, sa.Stats().PeakUsage)
}

// TestStack_BadRequests tests argument validation.
func TestStack_BadRequests(t *testing.T) {
	sa := NewStack(testutil.NewArena(t, 64))

	_, _, err := sa.Alloc(8, 12)
	require.ErrorIs(t, err, ErrBadAlignment)
	_, _, err = sa.Alloc(-4, 4)
	require.ErrorIs(t, err, ErrBadSize)

	assert.Equal(t, 2, sa.Stats().Failed)
	assert.Equal(t, NilRef, sa.Top())
}
