package alloc

import (
	"math"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/format"
)

// region is the bookkeeping every strategy shares: the managed arena, its
// address, and live usage. It is embedded, not inherited from.
type region struct {
	mem   []byte
	addr  uintptr // address of mem[0]; alignment is computed against it
	used  int
	count int
	stats Stats
}

func newRegion(mem []byte) region {
	return region{
		mem:  mem,
		addr: uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
	}
}

// Memory returns the arena the allocator manages.
func (r *region) Memory() []byte { return r.mem }

// Size returns the arena capacity in bytes.
func (r *region) Size() int { return len(r.mem) }

// MemoryUsage returns the bytes attributed to live allocations.
func (r *region) MemoryUsage() int { return r.used }

// AllocationCount returns the number of live allocations.
func (r *region) AllocationCount() int { return r.count }

// Stats returns a snapshot of the allocator counters.
func (r *region) Stats() Stats { return r.stats }

// available returns the bytes not attributed to live allocations.
func (r *region) available() int { return len(r.mem) - r.used }

// fits reports whether adj+size more bytes fit without overflowing.
func (r *region) fits(adj, size int) bool {
	avail := r.available()
	return size <= avail && adj <= avail-size
}

func (r *region) grant(ref Ref, charged, size int) []byte {
	r.used += charged
	r.count++
	r.stats.PeakUsage = max(r.stats.PeakUsage, r.used)
	assertf(r.used <= len(r.mem), "alloc: usage %d exceeds arena size %d", r.used, len(r.mem))
	payload, _ := buf.Slice(r.mem, ref, size)
	return payload
}

func (r *region) release(charged int) {
	r.used -= charged
	r.count--
	assertf(r.used >= 0 && r.count >= 0, "alloc: negative usage %d / count %d", r.used, r.count)
}

func (r *region) reset() {
	r.used = 0
	r.count = 0
}

// adjustment returns the padding that aligns the payload following offset
// off, leaving headerSize bytes for an in-band header.
func (r *region) adjustment(off, alignment, headerSize int) (int, error) {
	adj := format.AlignForwardAdjustmentWithHeader(r.addr+uintptr(off), uintptr(alignment), uintptr(headerSize))
	if adj > math.MaxUint32 {
		return 0, ErrBadAlignment
	}
	return int(adj), nil
}

// normalize validates a request and resolves the default alignment.
func normalize(size, alignment int) (int, error) {
	if size < 0 {
		return 0, ErrBadSize
	}
	if alignment <= 0 {
		alignment = DefaultAlignment
	}
	if !format.IsPowerOfTwo(uintptr(alignment)) {
		return 0, ErrBadAlignment
	}
	return alignment, nil
}

// PointerOf returns the address of the byte at ref in a's arena.
// The pointer stays valid for as long as the arena does.
func PointerOf(a Allocator, ref Ref) (unsafe.Pointer, bool) {
	mem := a.Memory()
	if ref < 0 || ref >= len(mem) {
		return nil, false
	}
	return unsafe.Pointer(&mem[ref]), true
}

// RefOf translates an address inside a's arena back to a ref. An address
// one past the end of the arena maps to len(Memory()).
func RefOf(a Allocator, p unsafe.Pointer) (Ref, bool) {
	mem := a.Memory()
	if p == nil || len(mem) == 0 {
		return NilRef, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(mem)))
	addr := uintptr(p)
	if addr < base || addr-base > uintptr(len(mem)) {
		return NilRef, false
	}
	return Ref(addr - base), true
}
