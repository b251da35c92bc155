package format

// Alignment utilities shared by every allocation strategy.
// All alignments are powers of two; callers validate with IsPowerOfTwo first.

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// AlignForward returns addr rounded up to the next multiple of alignment.
//
// Example:
//
//	AlignForward(13, 8) = 16
//	AlignForward(16, 8) = 16
func AlignForward(addr, alignment uintptr) uintptr {
	return (addr + alignment - 1) &^ (alignment - 1)
}

// AlignForwardAdjustment returns the number of padding bytes needed to align
// addr. The result is always in [0, alignment-1]; an aligned address needs 0.
func AlignForwardAdjustment(addr, alignment uintptr) uintptr {
	return (alignment - addr&(alignment-1)) & (alignment - 1)
}

// AlignForwardAdjustmentWithHeader returns the padding needed to align addr
// while leaving at least headerSize bytes between addr and the aligned
// payload. When the natural adjustment is too small, it grows by whole
// multiples of alignment until the header fits.
//
// Example:
//
//	AlignForwardAdjustmentWithHeader(0x1001, 8, 16) = 23  // payload at 0x1018
func AlignForwardAdjustmentWithHeader(addr, alignment, headerSize uintptr) uintptr {
	adjustment := AlignForwardAdjustment(addr, alignment)
	if adjustment >= headerSize {
		return adjustment
	}

	needed := headerSize - adjustment
	adjustment += alignment * (needed / alignment)
	if needed%alignment > 0 {
		adjustment += alignment
	}
	return adjustment
}

// AlignUp returns n rounded up to a multiple of alignment.
// int version for page and slot-size rounding.
//
// Example:
//
//	AlignUp(1, 4096)    = 4096
//	AlignUp(4096, 4096) = 4096
//	AlignUp(4097, 4096) = 8192
func AlignUp(n, alignment int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}

// AlignDown returns n rounded down to a multiple of alignment.
func AlignDown(n, alignment int) int {
	return n &^ (alignment - 1)
}
