package body

import (
	"reflect"
	"unsafe"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/session"
	"github.com/cspproto/csp/wire"
)

func arithmeticKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Int, reflect.Uint, reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// serializeSpan emits n contiguous elements of rv (a slice or array, spec
// §4.3 "For arrays of T ... the same decision applies"). Eligible spans
// are memcpy'd as a single raw block; the arithmetic-width marker, when
// applicable, is written once for the whole span rather than once per
// element.
func serializeSpan(rv reflect.Value, n int, ctx *session.Data) error {
	if n == 0 {
		return nil
	}
	elemType := rv.Type().Elem()
	flags := ctx.DataFlags
	if fastPathEligible(elemType, endiannessOK(elemType, ctx), flags.Has(csp.FlagAlignmentMayBeNotEqual), flags.Has(csp.FlagSizeOfIntegersMayBeNotEqual), ctx.FastPathDisabled()) &&
		!(arithmeticKind(elemType.Kind()) && flags.Has(csp.FlagSizeOfIntegersMayBeNotEqual) && !isFixedWidthArithmetic(elemType.Kind())) {
		size := n * int(elemType.Size())
		ptr := unsafe.Pointer(rv.Index(0).UnsafeAddr())
		b := unsafe.Slice((*byte)(ptr), size)
		ctx.Buf.Append(b)
		return nil
	}
	if arithmeticKind(elemType.Kind()) && flags.Has(csp.FlagSizeOfIntegersMayBeNotEqual) && !isFixedWidthArithmetic(elemType.Kind()) {
		bigEndian := ctx.BigEndian()
		if err := wire.WritePrimitive(ctx.Buf, nativeIntSize, bigEndian); err != nil {
			return err
		}
		signed := elemType.Kind() == reflect.Int
		for i := 0; i < n; i++ {
			ev := rv.Index(i)
			var v int64
			if signed {
				v = ev.Int()
			} else {
				v = int64(ev.Uint())
			}
			if err := wire.WriteToAnotherSize(ctx.Buf, nativeIntSize, v, signed, bigEndian); err != nil {
				return err
			}
		}
		return nil
	}
	for i := 0; i < n; i++ {
		if err := dispatchSerialize(rv.Index(i), ctx); err != nil {
			return err
		}
	}
	return nil
}

// deserializeSpan is the reciprocal of serializeSpan, writing into the
// first n addressable elements of rv.
func deserializeSpan(rv reflect.Value, n int, ctx *session.Data) error {
	if n == 0 {
		return nil
	}
	elemType := rv.Type().Elem()
	flags := ctx.DataFlags
	if fastPathEligible(elemType, endiannessOK(elemType, ctx), flags.Has(csp.FlagAlignmentMayBeNotEqual), flags.Has(csp.FlagSizeOfIntegersMayBeNotEqual), ctx.FastPathDisabled()) &&
		!(arithmeticKind(elemType.Kind()) && flags.Has(csp.FlagSizeOfIntegersMayBeNotEqual) && !isFixedWidthArithmetic(elemType.Kind())) {
		size := n * int(elemType.Size())
		b, err := ctx.Buf.ReadBytes(size)
		if err != nil {
			return err
		}
		ptr := unsafe.Pointer(rv.Index(0).UnsafeAddr())
		dst := unsafe.Slice((*byte)(ptr), size)
		copy(dst, b)
		return nil
	}
	if arithmeticKind(elemType.Kind()) && flags.Has(csp.FlagSizeOfIntegersMayBeNotEqual) && !isFixedWidthArithmetic(elemType.Kind()) {
		bigEndian := ctx.BigEndian()
		wireSize, err := wire.ReadPrimitive[uint8](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		signed := elemType.Kind() == reflect.Int
		for i := 0; i < n; i++ {
			v, err := wire.ReadFromAnotherSize(ctx.Buf, wireSize, signed, bigEndian)
			if err != nil {
				return err
			}
			ev := rv.Index(i)
			if signed {
				ev.SetInt(v)
			} else {
				ev.SetUint(uint64(v))
			}
		}
		return nil
	}
	for i := 0; i < n; i++ {
		if err := dispatchDeserialize(rv.Index(i), ctx); err != nil {
			return err
		}
	}
	return nil
}
