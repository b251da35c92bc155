//go:build windows

package vmem

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// sysReserve reserves address space with MEM_RESERVE; nothing is committed.
func sysReserve(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// sysCommit commits pages inside a previous reservation.
func sysCommit(b []byte) error {
	_, err := windows.VirtualAlloc(
		uintptr(unsafe.Pointer(&b[0])),
		uintptr(len(b)),
		windows.MEM_COMMIT,
		windows.PAGE_READWRITE,
	)
	return err
}

// sysDecommit returns pages to the reserved state.
func sysDecommit(b []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), windows.MEM_DECOMMIT)
}

// sysRelease frees the whole reservation. MEM_RELEASE requires a zero size.
func sysRelease(b []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), 0, windows.MEM_RELEASE)
}
