//go:build !linux && !darwin && !freebsd && !windows

package vmem

// Generic fallback for platforms without a virtual memory binding. The
// reservation is allocated eagerly on the Go heap, so address space is not
// actually reserved and commit only records state.

func sysReserve(size int) ([]byte, error) {
	return AlignedMalloc(size, PageSize()), nil
}

func sysCommit(_ []byte) error {
	return nil
}

// sysDecommit zeroes the range to mimic fresh pages on the next commit.
func sysDecommit(b []byte) error {
	clear(b)
	return nil
}

func sysRelease(_ []byte) error {
	return nil
}
