//go:build linux || darwin || freebsd

package vmem

import (
	"golang.org/x/sys/unix"
)

// sysReserve maps an inaccessible anonymous region. PROT_NONE private
// mappings consume address space only.
func sysReserve(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

// sysCommit makes the pages readable and writable; the kernel backs them
// with zeroed memory on first touch.
func sysCommit(b []byte) error {
	return unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE)
}

// sysDecommit drops the physical pages and revokes access.
func sysDecommit(b []byte) error {
	if err := unix.Madvise(b, unix.MADV_DONTNEED); err != nil {
		return err
	}
	return unix.Mprotect(b, unix.PROT_NONE)
}

// sysRelease unmaps the whole reservation. b must be the slice sysReserve returned.
func sysRelease(b []byte) error {
	return unix.Munmap(b)
}
