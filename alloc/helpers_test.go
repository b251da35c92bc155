package alloc

import (
	"unsafe"
)

// addrOf returns the absolute address of payload.
func addrOf(payload []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(payload)))
}
