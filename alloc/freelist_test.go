package alloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/format"
	"github.com/joshuapare/memkit/internal/testutil"
)

// threeBlocks allocates three 100-byte, 8-aligned blocks from a fresh 1 KiB arena.
func threeBlocks(t *testing.T) (*FreeListAllocator, [3]Ref) {
	t.Helper()
	fl := NewFreeList(testutil.NewArena(t, 1024))
	var refs [3]Ref
	for i := range refs {
		ref, payload, err := fl.Alloc(100, 8)
		require.NoError(t, err)
		testutil.Fill(payload, byte(i+1))
		refs[i] = ref
	}
	return fl, refs
}

// TestFreeList_Layout tests block placement and header contents.
func TestFreeList_Layout(t *testing.T) {
	fl, refs := threeBlocks(t)

	assert.Equal(t, [3]Ref{16, 136, 256}, refs)
	assert.Equal(t, 356, fl.MemoryUsage())
	assert.Equal(t, []Block{{Off: 356, Size: 668}}, fl.FreeBlocks())
	assert.Equal(t, 3, fl.Stats().Splits)

	hdr, err := format.ReadBlockHeader(fl.Memory(), refs[1])
	require.NoError(t, err)
	assert.Equal(t, uint64(120), hdr.Size)
	assert.Equal(t, uint32(20), hdr.Adjustment)
}

// TestFreeList_CoalesceAnyOrder tests that freeing three adjacent blocks in
// every order leaves a single block spanning the arena.
func TestFreeList_CoalesceAnyOrder(t *testing.T) {
	orders := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2},
		{1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			fl, refs := threeBlocks(t)
			for _, i := range order {
				require.NoError(t, fl.Free(refs[i]))
			}
			assert.Equal(t, []Block{{Off: 0, Size: 1024}}, fl.FreeBlocks())
			assert.Zero(t, fl.MemoryUsage())
			assert.Zero(t, fl.AllocationCount())
			assert.Equal(t, 1024, fl.LargestFree())
		})
	}
}

// TestFreeList_FreeMiddleLast tests that freeing A then C then B merges
// on both sides at once.
func TestFreeList_FreeMiddleLast(t *testing.T) {
	fl, refs := threeBlocks(t)

	require.NoError(t, fl.Free(refs[0]))
	assert.Equal(t, []Block{{0, 116}, {356, 668}}, fl.FreeBlocks())

	require.NoError(t, fl.Free(refs[2]))
	assert.Equal(t, []Block{{0, 116}, {236, 788}}, fl.FreeBlocks())

	require.NoError(t, fl.Free(refs[1]))
	assert.Equal(t, []Block{{0, 1024}}, fl.FreeBlocks())

	stats := fl.Stats()
	assert.Equal(t, 2, stats.CoalesceForward)
	assert.Equal(t, 1, stats.CoalesceBackward)
}

// TestFreeList_FirstFit tests that the lowest fitting block wins even when a
// later block is a tighter fit.
func TestFreeList_FirstFit(t *testing.T) {
	fl := NewFreeList(testutil.NewArena(t, 1024))

	x, _, err := fl.Alloc(200, 8)
	require.NoError(t, err)
	_, _, err = fl.Alloc(40, 8)
	require.NoError(t, err)
	z, _, err := fl.Alloc(60, 8)
	require.NoError(t, err)
	_, _, err = fl.Alloc(8, 8)
	require.NoError(t, err)

	require.NoError(t, fl.Free(x))
	require.NoError(t, fl.Free(z))
	assert.Equal(t, []Block{{0, 216}, {272, 76}, {376, 648}}, fl.FreeBlocks())

	ref, _, err := fl.Alloc(40, 8)
	require.NoError(t, err)
	assert.Equal(t, 16, ref)
}

// TestFreeList_ConsumeWholeBlock tests that a remainder too small to hold a
// header is handed out with the allocation instead of split off.
func TestFreeList_ConsumeWholeBlock(t *testing.T) {
	fl := NewFreeList(testutil.NewArena(t, 128))

	ref, payload, err := fl.Alloc(100, 8)
	require.NoError(t, err)
	assert.Equal(t, 16, ref)
	assert.Len(t, payload, 100)
	assert.Equal(t, 128, fl.MemoryUsage())
	assert.Empty(t, fl.FreeBlocks())
	assert.Zero(t, fl.Stats().Splits)

	_, _, err = fl.Alloc(1, 1)
	require.ErrorIs(t, err, ErrNoSpace)

	require.NoError(t, fl.Free(ref))
	assert.Equal(t, []Block{{0, 128}}, fl.FreeBlocks())
	assert.Zero(t, fl.MemoryUsage())
}

// TestFreeList_Reuse tests that freed space is handed out again.
func TestFreeList_Reuse(t *testing.T) {
	fl, refs := threeBlocks(t)

	require.NoError(t, fl.Free(refs[1]))
	ref, payload, err := fl.Alloc(100, 8)
	require.NoError(t, err)
	assert.Equal(t, refs[1], ref)
	testutil.Fill(payload, 0xEE)

	testutil.RequirePattern(t, fl.Memory()[refs[0]:refs[0]+100], 1)
	testutil.RequirePattern(t, fl.Memory()[refs[2]:refs[2]+100], 3)
}

// TestFreeList_BadFrees tests ref validation and double free detection.
func TestFreeList_BadFrees(t *testing.T) {
	fl, refs := threeBlocks(t)

	require.ErrorIs(t, fl.Free(3), ErrBadRef)
	require.ErrorIs(t, fl.Free(5000), ErrBadRef)

	require.NoError(t, fl.Free(refs[0]))
	require.ErrorIs(t, fl.Free(refs[0]), ErrDoubleFree)
	assert.Equal(t, 2, fl.AllocationCount())
	assert.Equal(t, 240, fl.MemoryUsage())

	require.NoError(t, fl.Free(refs[1]))
	require.NoError(t, fl.Free(refs[2]))
	require.ErrorIs(t, fl.Free(refs[2]), ErrBadRef, "nothing is allocated")
}

// TestFreeList_Exhaustion tests that a failed allocation changes nothing.
func TestFreeList_Exhaustion(t *testing.T) {
	fl := NewFreeList(testutil.NewArena(t, 256))

	_, _, err := fl.Alloc(241, 8)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.Equal(t, []Block{{0, 256}}, fl.FreeBlocks())

	_, _, err = fl.Alloc(8, 5)
	require.ErrorIs(t, err, ErrBadAlignment)
	_, _, err = fl.Alloc(-1, 8)
	require.ErrorIs(t, err, ErrBadSize)

	assert.Equal(t, 3, fl.Stats().Failed)

	empty := NewFreeList(nil)
	_, _, err = empty.Alloc(1, 1)
	require.ErrorIs(t, err, ErrNoSpace)
}
