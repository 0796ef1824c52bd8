package body

import (
	"reflect"
	"unsafe"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/session"
	"github.com/cspproto/csp/wire"
)

// nativeIntSize is the width in bytes of Go's platform-native int/uint
// kinds, the stand-in for the spec's "T is not a fixed-size arithmetic
// type" (int8/16/32/64 and uint8/16/32/64 are always fixed-width in Go;
// only the bare int/uint kinds vary with the target architecture).
var nativeIntSize = uint8(unsafe.Sizeof(int(0)))

func isFixedWidthArithmetic(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Uint:
		return false
	default:
		return true
	}
}

// Serialize is the body processor's top-level entry point for a single
// value (spec §4.3 `serialize(value, ctx)`).
func Serialize(value any, ctx *session.Data) error {
	return dispatchSerialize(reflect.ValueOf(value), ctx)
}

// Deserialize is the reciprocal entry point; out must be a non-nil
// pointer to the destination value (spec §4.3 `deserialize(ctx, &value)`).
func Deserialize(ctx *session.Data, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return csp.ErrInvalidArgument
	}
	return dispatchDeserialize(rv.Elem(), ctx)
}

// SerializeSize writes a size_t-shaped value using the session's
// bitness/endianness policy (spec §4.1 `serialize_size`).
func SerializeSize(ctx *session.Data, v uint64) error {
	return wire.WriteSize(ctx.Buf, v, ctx.Bitness32(), ctx.BigEndian())
}

// DeserializeSize is the reciprocal of SerializeSize.
func DeserializeSize(ctx *session.Data) (uint64, error) {
	return wire.ReadSize(ctx.Buf, ctx.Bitness32(), ctx.BigEndian())
}

func endiannessOK(rt reflect.Type, ctx *session.Data) bool {
	if !ctx.EndiannessMismatched() {
		return true
	}
	traits, ok := traitsFor(rt)
	return ok && traits.EndiannessTolerant
}

func dispatchSerialize(rv reflect.Value, ctx *session.Data) error {
	if !rv.IsValid() {
		return csp.ErrInvalidArgument
	}
	switch rv.Kind() {
	case reflect.Ptr:
		return serializePointer(rv, ctx)
	case reflect.Bool, reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Int, reflect.Uint, reflect.Float32, reflect.Float64:
		return serializeArithmetic(rv, ctx)
	case reflect.Array:
		return serializeSpan(rv, rv.Len(), ctx)
	case reflect.Slice:
		if rv.IsNil() && rv.Len() == 0 {
			return SerializeSize(ctx, 0)
		}
		if err := SerializeSize(ctx, uint64(rv.Len())); err != nil {
			return err
		}
		return serializeSpan(rv, rv.Len(), ctx)
	case reflect.Struct:
		return serializeStruct(rv, ctx)
	default:
		return csp.ErrInvalidType
	}
}

func dispatchDeserialize(rv reflect.Value, ctx *session.Data) error {
	if !rv.IsValid() || !rv.CanSet() {
		return csp.ErrInvalidArgument
	}
	switch rv.Kind() {
	case reflect.Ptr:
		return deserializePointer(rv, ctx)
	case reflect.Bool, reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Int, reflect.Uint, reflect.Float32, reflect.Float64:
		return deserializeArithmetic(rv, ctx)
	case reflect.Array:
		return deserializeSpan(rv, rv.Len(), ctx)
	case reflect.Slice:
		n, err := DeserializeSize(ctx)
		if err != nil {
			return err
		}
		rv.Set(reflect.MakeSlice(rv.Type(), int(n), int(n)))
		return deserializeSpan(rv, int(n), ctx)
	case reflect.Struct:
		return deserializeStruct(rv, ctx)
	default:
		return csp.ErrInvalidType
	}
}

func serializeArithmetic(rv reflect.Value, ctx *session.Data) error {
	bigEndian := ctx.BigEndian()
	k := rv.Kind()
	if ctx.DataFlags.Has(csp.FlagSizeOfIntegersMayBeNotEqual) && !isFixedWidthArithmetic(k) {
		if err := wire.WritePrimitive(ctx.Buf, nativeIntSize, bigEndian); err != nil {
			return err
		}
		if k == reflect.Int {
			return wire.WriteToAnotherSize(ctx.Buf, nativeIntSize, rv.Int(), true, bigEndian)
		}
		return wire.WriteToAnotherSize(ctx.Buf, nativeIntSize, int64(rv.Uint()), false, bigEndian)
	}
	switch k {
	case reflect.Bool:
		return wire.WritePrimitive(ctx.Buf, rv.Bool(), bigEndian)
	case reflect.Int8:
		return wire.WritePrimitive(ctx.Buf, int8(rv.Int()), bigEndian)
	case reflect.Uint8:
		return wire.WritePrimitive(ctx.Buf, uint8(rv.Uint()), bigEndian)
	case reflect.Int16:
		return wire.WritePrimitive(ctx.Buf, int16(rv.Int()), bigEndian)
	case reflect.Uint16:
		return wire.WritePrimitive(ctx.Buf, uint16(rv.Uint()), bigEndian)
	case reflect.Int32:
		return wire.WritePrimitive(ctx.Buf, int32(rv.Int()), bigEndian)
	case reflect.Uint32:
		return wire.WritePrimitive(ctx.Buf, uint32(rv.Uint()), bigEndian)
	case reflect.Int64, reflect.Int:
		return wire.WritePrimitive(ctx.Buf, rv.Int(), bigEndian)
	case reflect.Uint64, reflect.Uint:
		return wire.WritePrimitive(ctx.Buf, rv.Uint(), bigEndian)
	case reflect.Float32:
		return wire.WritePrimitive(ctx.Buf, float32(rv.Float()), bigEndian)
	case reflect.Float64:
		return wire.WritePrimitive(ctx.Buf, rv.Float(), bigEndian)
	default:
		return csp.ErrInvalidType
	}
}

func deserializeArithmetic(rv reflect.Value, ctx *session.Data) error {
	bigEndian := ctx.BigEndian()
	k := rv.Kind()
	if ctx.DataFlags.Has(csp.FlagSizeOfIntegersMayBeNotEqual) && !isFixedWidthArithmetic(k) {
		wireSize, err := wire.ReadPrimitive[uint8](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		signed := k == reflect.Int
		v, err := wire.ReadFromAnotherSize(ctx.Buf, wireSize, signed, bigEndian)
		if err != nil {
			return err
		}
		if signed {
			rv.SetInt(v)
		} else {
			rv.SetUint(uint64(v))
		}
		return nil
	}
	switch k {
	case reflect.Bool:
		v, err := wire.ReadPrimitive[bool](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetBool(v)
	case reflect.Int8:
		v, err := wire.ReadPrimitive[int8](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetInt(int64(v))
	case reflect.Uint8:
		v, err := wire.ReadPrimitive[uint8](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(v))
	case reflect.Int16:
		v, err := wire.ReadPrimitive[int16](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetInt(int64(v))
	case reflect.Uint16:
		v, err := wire.ReadPrimitive[uint16](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(v))
	case reflect.Int32:
		v, err := wire.ReadPrimitive[int32](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetInt(int64(v))
	case reflect.Uint32:
		v, err := wire.ReadPrimitive[uint32](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(v))
	case reflect.Int64, reflect.Int:
		v, err := wire.ReadPrimitive[int64](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetInt(v)
	case reflect.Uint64, reflect.Uint:
		v, err := wire.ReadPrimitive[uint64](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetUint(v)
	case reflect.Float32:
		v, err := wire.ReadPrimitive[float32](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetFloat(float64(v))
	case reflect.Float64:
		v, err := wire.ReadPrimitive[float64](ctx.Buf, bigEndian)
		if err != nil {
			return err
		}
		rv.SetFloat(v)
	default:
		return csp.ErrInvalidType
	}
	return nil
}

func serializePointer(rv reflect.Value, ctx *session.Data) error {
	if !ctx.AllowsUnmanagedPointers() {
		return csp.ErrNotSupportedSerializationSettingsForStruct
	}
	if ctx.ChecksRecursivePointers() {
		if rv.IsNil() {
			return SerializeSize(ctx, 0)
		}
		addr := rv.Pointer()
		if offset, seen := ctx.Pointers.SeenSource(addr); seen {
			return SerializeSize(ctx, offset)
		}
		if err := SerializeSize(ctx, 1); err != nil {
			return err
		}
		ctx.Pointers.RecordSource(addr, uint64(ctx.Buf.Len()))
		return dispatchSerialize(rv.Elem(), ctx)
	}
	if rv.IsNil() {
		return wire.WritePrimitive(ctx.Buf, uint8(0), ctx.BigEndian())
	}
	if err := wire.WritePrimitive(ctx.Buf, uint8(1), ctx.BigEndian()); err != nil {
		return err
	}
	return dispatchSerialize(rv.Elem(), ctx)
}

func deserializePointer(rv reflect.Value, ctx *session.Data) error {
	if !ctx.AllowsUnmanagedPointers() {
		return csp.ErrNotSupportedSerializationSettingsForStruct
	}
	elemType := rv.Type().Elem()
	if ctx.ChecksRecursivePointers() {
		key, err := DeserializeSize(ctx)
		if err != nil {
			return err
		}
		switch key {
		case 0:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		case 1:
			offset := uint64(ctx.Buf.Tell())
			fresh := reflect.New(elemType)
			ctx.Pointers.RecordOffset(offset, fresh.Interface())
			if ctx.Temp != nil {
				ctx.Temp.Track(fresh.Interface())
			}
			if err := dispatchDeserialize(fresh.Elem(), ctx); err != nil {
				return err
			}
			rv.Set(fresh)
			return nil
		default:
			existing, ok := ctx.Pointers.SeenOffset(key)
			if !ok {
				return csp.ErrDataCorrupted
			}
			rv.Set(reflect.ValueOf(existing))
			return nil
		}
	}
	present, err := wire.ReadPrimitive[uint8](ctx.Buf, ctx.BigEndian())
	if err != nil {
		return err
	}
	if present == 0 {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	fresh := reflect.New(elemType)
	if ctx.Temp != nil {
		ctx.Temp.Track(fresh.Interface())
	}
	if err := dispatchDeserialize(fresh.Elem(), ctx); err != nil {
		return err
	}
	rv.Set(fresh)
	return nil
}

// serializeStruct implements dispatch cases 1 ("EmptyType"), 4 ("any
// simply-assignable aggregate" fast path) and 5 (generic struct, the
// "otherwise" path) of spec §4.3.
func serializeStruct(rv reflect.Value, ctx *session.Data) error {
	if !rv.CanAddr() {
		tmp := reflect.New(rv.Type()).Elem()
		tmp.Set(rv)
		rv = tmp
	}
	rt := rv.Type()
	if rt.NumField() == 0 {
		return nil
	}
	if iser, ok := rv.Addr().Interface().(ISerializable); ok {
		if !versionEligibleForFastPath(iser, ctx) {
			return serializeFields(rv, ctx)
		}
	}
	if fastPathEligible(rt, endiannessOK(rt, ctx), ctx.DataFlags.Has(csp.FlagAlignmentMayBeNotEqual), ctx.DataFlags.Has(csp.FlagSizeOfIntegersMayBeNotEqual), ctx.FastPathDisabled()) {
		rawCopyOut(rv, func(b []byte) int { return ctx.Buf.Append(b) })
		return nil
	}
	if !endiannessOK(rt, ctx) {
		if _, ok := traitsFor(rt); !ok {
			return csp.ErrNotSupportedSerializationSettingsForStruct
		}
	}
	return serializeFields(rv, ctx)
}

func deserializeStruct(rv reflect.Value, ctx *session.Data) error {
	rt := rv.Type()
	if rt.NumField() == 0 {
		return nil
	}
	if iser, ok := rv.Addr().Interface().(ISerializable); ok {
		if !versionEligibleForFastPath(iser, ctx) {
			return deserializeFields(rv, ctx)
		}
	}
	if fastPathEligible(rt, endiannessOK(rt, ctx), ctx.DataFlags.Has(csp.FlagAlignmentMayBeNotEqual), ctx.DataFlags.Has(csp.FlagSizeOfIntegersMayBeNotEqual), ctx.FastPathDisabled()) {
		size := int(rt.Size())
		b, err := ctx.Buf.ReadBytes(size)
		if err != nil {
			return err
		}
		rawCopyIn(rv, b)
		return nil
	}
	if !endiannessOK(rt, ctx) {
		if _, ok := traitsFor(rt); !ok {
			return csp.ErrNotSupportedSerializationSettingsForStruct
		}
	}
	return deserializeFields(rv, ctx)
}

// versionEligibleForFastPath implements spec §4.3 bullet 3: "If T is
// ISerializableBased, its latest private version <= session interface
// version (otherwise the wire shape is for an older layout and must be
// emitted field-by-field)".
func versionEligibleForFastPath(iser ISerializable, ctx *session.Data) bool {
	if ctx.InterfaceVersion == csp.InterfaceVersionUndefined {
		return true
	}
	return iser.LatestInterfaceVersion() <= ctx.InterfaceVersion
}

func serializeFields(rv reflect.Value, ctx *session.Data) error {
	if fw, ok := rv.Addr().Interface().(FieldWalker); ok {
		return fw.WalkFields(func(field any) error { return Serialize(field, ctx) })
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).PkgPath != "" {
			continue // unexported
		}
		if err := dispatchSerialize(rv.Field(i), ctx); err != nil {
			return err
		}
	}
	return nil
}

func deserializeFields(rv reflect.Value, ctx *session.Data) error {
	if fw, ok := rv.Addr().Interface().(FieldWalker); ok {
		idx := -1
		fields := collectAddressableFields(rv)
		return fw.WalkFields(func(field any) error {
			idx++
			if idx >= len(fields) {
				return csp.ErrInternal
			}
			return dispatchDeserialize(fields[idx], ctx)
		})
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).PkgPath != "" {
			continue
		}
		if err := dispatchDeserialize(rv.Field(i), ctx); err != nil {
			return err
		}
	}
	return nil
}

func collectAddressableFields(rv reflect.Value) []reflect.Value {
	rt := rv.Type()
	out := make([]reflect.Value, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).PkgPath != "" {
			continue
		}
		out = append(out, rv.Field(i))
	}
	return out
}
