package replay

const (
	// ============================================================================
	// Trace Format Tokens
	// ============================================================================

	// CommentPrefix marks a comment; the rest of the line is ignored.
	CommentPrefix = "#"

	// KeywordAlloc starts an allocation: alloc <id> <size> [align]
	KeywordAlloc = "alloc"

	// KeywordFree starts a free: free <id>
	KeywordFree = "free"

	// KeywordClear releases every live allocation: clear
	KeywordClear = "clear"

	// ============================================================================
	// Scanner Limits
	// ============================================================================

	// ScannerInitialBufferSize is the initial line buffer.
	ScannerInitialBufferSize = 4 * 1024

	// ScannerMaxLineSize bounds a single trace line.
	ScannerMaxLineSize = 64 * 1024
)
