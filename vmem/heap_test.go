package vmem

import "testing"

func TestAlignedMalloc(t *testing.T) {
	for _, align := range []int{1, 8, 64, 4096} {
		b := AlignedMalloc(100, align)
		if len(b) != 100 || cap(b) != 100 {
			t.Fatalf("align %d: len=%d cap=%d want 100", align, len(b), cap(b))
		}
		if !IsAligned(b, align) {
			t.Fatalf("block not aligned to %d", align)
		}
	}
	if AlignedMalloc(10, 3) != nil {
		t.Fatalf("expected nil for non power-of-two alignment")
	}
	if b := AlignedMalloc(0, 16); b == nil || len(b) != 0 {
		t.Fatalf("zero-size aligned block should be empty, got %v", b)
	}
}

func TestAlignedReallocPreservesPrefix(t *testing.T) {
	b := AlignedMalloc(16, 64)
	for i := range b {
		b[i] = byte(i + 1)
	}
	nb := AlignedRealloc(b, 256, 64)
	if len(nb) != 256 || !IsAligned(nb, 64) {
		t.Fatalf("realloc: len=%d aligned=%v", len(nb), IsAligned(nb, 64))
	}
	for i := range 16 {
		if nb[i] != byte(i+1) {
			t.Fatalf("byte %d lost: got %d", i, nb[i])
		}
	}
	shrunk := AlignedRealloc(nb, 8, 64)
	if len(shrunk) != 8 || &shrunk[0] != &nb[0] {
		t.Fatalf("shrinking realloc should reuse the block")
	}
}

func TestReallocAndFree(t *testing.T) {
	b := Malloc(4)
	copy(b, []byte{1, 2, 3, 4})
	b = Realloc(b, 10)
	if len(b) != 10 || b[3] != 4 {
		t.Fatalf("Realloc lost data: %v", b)
	}
	Free(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("Free left byte %d = %d", i, v)
		}
	}
	if Malloc(-1) != nil || Realloc(b, -1) != nil {
		t.Fatalf("negative sizes should return nil")
	}
}
