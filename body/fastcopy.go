package body

import (
	"reflect"
	"unsafe"
)

// rawCopyOut appends the raw in-memory bytes backing rv (a struct or
// array value) to dst, with no field-by-field interpretation. This is
// the Go equivalent of the spec's memcpy fast path: valid only once the
// caller has already proven fastPathEligible for rv's type.
func rawCopyOut(rv reflect.Value, dst func([]byte) int) int {
	size := int(rv.Type().Size())
	if size == 0 {
		return dst(nil)
	}
	ptr := unsafe.Pointer(rv.UnsafeAddr())
	b := unsafe.Slice((*byte)(ptr), size)
	return dst(b)
}

// rawCopyIn overwrites rv's backing memory with n bytes read from src.
// rv must be addressable (obtained from a pointer dereference) and
// exactly n == sizeof(rv.Type()).
func rawCopyIn(rv reflect.Value, src []byte) {
	if len(src) == 0 {
		return
	}
	ptr := unsafe.Pointer(rv.UnsafeAddr())
	dst := unsafe.Slice((*byte)(ptr), len(src))
	copy(dst, src)
}
