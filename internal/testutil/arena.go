// Package testutil holds helpers shared by memkit tests: aligned arenas,
// payload pattern checks and a recording page committer.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/vmem"
)

// ArenaAlignment is the alignment of arenas from NewArena. Tests can rely on
// it to predict offsets independent of where the Go heap places the arena.
const ArenaAlignment = 64

// NewArena returns a zeroed arena of size bytes whose first byte is
// ArenaAlignment-aligned.
//
// Example:
//
//	fl := alloc.NewFreeList(testutil.NewArena(t, 1024))
func NewArena(t testing.TB, size int) []byte {
	t.Helper()
	return NewAlignedArena(t, size, ArenaAlignment)
}

// NewAlignedArena is NewArena with an explicit alignment.
func NewAlignedArena(t testing.TB, size, alignment int) []byte {
	t.Helper()
	mem := vmem.AlignedMalloc(size, alignment)
	require.NotNil(t, mem, "aligned arena of %d bytes", size)
	require.Len(t, mem, size)
	return mem
}

// Fill writes v over every byte of payload.
func Fill(payload []byte, v byte) {
	for i := range payload {
		payload[i] = v
	}
}

// RequirePattern fails the test unless every byte of payload is v.
func RequirePattern(t testing.TB, payload []byte, v byte, msgAndArgs ...any) {
	t.Helper()
	for i, b := range payload {
		if b != v {
			require.Failf(t, "payload corrupted", "byte %d = %#x, want %#x %v", i, b, v, msgAndArgs)
		}
	}
}

// WriteTempFile writes body to name inside a per-test temporary directory
// and returns the file path.
func WriteTempFile(t testing.TB, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}
