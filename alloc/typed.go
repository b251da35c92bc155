package alloc

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/joshuapare/memkit/internal/buf"
	"github.com/joshuapare/memkit/internal/format"
)

// Destroyer is implemented by values that must release something before
// their memory is returned. Delete and DeleteArray call it on each value.
type Destroyer interface {
	Destroy()
}

// New allocates a T from a, initialises it to v and returns a pointer into
// the arena. Nothing is written when the allocation fails.
//
// T must not contain Go pointers (pointers, strings, slices, maps, channels,
// funcs, interfaces): the garbage collector does not scan arena memory.
func New[T any](a Allocator, v T) (*T, error) {
	size, align, err := layoutOf[T]()
	if err != nil {
		return nil, err
	}

	_, payload, err := a.Alloc(size, align)
	if err != nil {
		return nil, err
	}

	p := (*T)(unsafe.Pointer(unsafe.SliceData(payload)))
	*p = v
	return p, nil
}

// Delete destroys *p and frees its memory. p must have come from New with
// the same allocator. When the allocator refuses the free, *p is left as it
// was and Destroy is not called.
func Delete[T any](a Allocator, p *T) error {
	if p == nil {
		return ErrBadRef
	}
	ref, ok := RefOf(a, unsafe.Pointer(p))
	if !ok {
		return ErrBadRef
	}
	if err := checkFree(a, ref); err != nil {
		return err
	}

	if d, ok := any(p).(Destroyer); ok {
		d.Destroy()
	}
	var zero T
	*p = zero
	return a.Free(ref)
}

// NewArray allocates length elements of T, each initialised to v. The
// element count is stored in a hidden header of ceil(8/sizeof(T)) elements
// in front of the returned slice; DeleteArray needs it.
func NewArray[T any](a Allocator, length int, v T) ([]T, error) {
	size, align, err := layoutOf[T]()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, ErrBadSize
	}

	hdr := arrayHeaderBytes(size)
	total, err := buf.CheckArrayBounds(length, size, hdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSize, err)
	}

	_, payload, err := a.Alloc(total, align)
	if err != nil {
		return nil, err
	}

	format.PutU64(payload, hdr-format.ArrayLengthSize, uint64(length))
	first := unsafe.Add(unsafe.Pointer(unsafe.SliceData(payload)), hdr)
	elems := unsafe.Slice((*T)(first), length)
	for i := range elems {
		elems[i] = v
	}
	return elems, nil
}

// DeleteArray destroys every element of an array from NewArray and frees it,
// header included. The element count is read from the header, so s may have
// been resliced as long as it still starts at element 0.
func DeleteArray[T any](a Allocator, s []T) error {
	size, _, err := layoutOf[T]()
	if err != nil {
		return err
	}

	ref, ok := RefOf(a, unsafe.Pointer(unsafe.SliceData(s)))
	if !ok {
		return ErrBadRef
	}
	hdr := arrayHeaderBytes(size)
	if ref < hdr {
		return ErrBadRef
	}

	mem := a.Memory()
	n := format.ReadU64(mem, ref-format.ArrayLengthSize)
	if n > uint64(len(mem)-ref)/uint64(size) {
		return ErrBadRef
	}

	if err := checkFree(a, ref-hdr); err != nil {
		return err
	}

	elems := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(s))), int(n))
	var zero T
	for i := range elems {
		if d, ok := any(&elems[i]).(Destroyer); ok {
			d.Destroy()
		}
		elems[i] = zero
	}
	return a.Free(ref - hdr)
}

// freeChecker is implemented by allocators that can report whether Free(ref)
// would succeed without changing any state.
type freeChecker interface {
	canFree(ref Ref) error
}

// checkFree runs before any value is destroyed so that a refused free leaves
// the allocation intact. Allocators without the check are trusted.
func checkFree(a Allocator, ref Ref) error {
	if fc, ok := a.(freeChecker); ok {
		return fc.canFree(ref)
	}
	return nil
}

var (
	_ freeChecker = (*LinearAllocator)(nil)
	_ freeChecker = (*StackAllocator)(nil)
	_ freeChecker = (*GrowingStackAllocator)(nil)
	_ freeChecker = (*PoolAllocator)(nil)
	_ freeChecker = (*FreeListAllocator)(nil)
)

// arrayHeaderBytes returns the size of the length header: the smallest
// whole number of elements that holds a uint64.
func arrayHeaderBytes(elemSize int) int {
	return (format.ArrayLengthSize + elemSize - 1) / elemSize * elemSize
}

func layoutOf[T any]() (size, align int, err error) {
	var zero T
	size = int(unsafe.Sizeof(zero))
	align = int(unsafe.Alignof(zero))
	if size == 0 {
		return 0, 0, ErrBadSize
	}
	if !pointerFree(reflect.TypeFor[T]()) {
		return 0, 0, fmt.Errorf("%w: %s", ErrPointerType, reflect.TypeFor[T]())
	}
	return size, align, nil
}

var pointerFreeCache sync.Map // reflect.Type -> bool

// pointerFree reports whether values of t contain no Go pointers.
func pointerFree(t reflect.Type) bool {
	if v, ok := pointerFreeCache.Load(t); ok {
		return v.(bool) //nolint:errcheck // cache only stores bools
	}
	ok := scanPointerFree(t)
	pointerFreeCache.Store(t, ok)
	return ok
}

func scanPointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return false
	case reflect.Array:
		return t.Len() == 0 || scanPointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !scanPointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
