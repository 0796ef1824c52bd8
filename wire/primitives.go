package wire

import (
	"errors"
	"math"
	"unsafe"
)

// ErrUnsupportedPrimitive is returned for a T the primitive read/write
// functions don't know how to reverse-endian (the spec's "long double is
// not endianness-reversable" rule, generalized to "any T we don't have a
// fixed-width encoding for").
var ErrUnsupportedPrimitive = errors.New("wire: unsupported primitive type")

// ErrTypeSizeTooBig is returned when a requested integer-width promotion
// target is outside {1, 2, 4, 8} (spec §4.1).
var ErrTypeSizeTooBig = errors.New("wire: target width too big")

// ErrOverflow is returned when a value doesn't fit a narrower promotion
// target (downcast during write).
var ErrOverflow = errors.New("wire: overflow during width conversion")

// ErrDataCorrupted is returned when a widened value doesn't fit back into
// the narrower type the reader expected (downcast during read).
var ErrDataCorrupted = errors.New("wire: corrupted width-promoted value")

// Primitive is the set of Go types the wire layer can endian-swap and
// width-promote directly: every arithmetic kind CSP treats as a leaf in
// the body processor's dispatch (spec §3, §4.1), plus bool for the
// header's boolean-shaped flags.
type Primitive interface {
	~bool | ~int8 | ~uint8 | ~int16 | ~uint16 |
		~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// nativeBigEndian is computed once from the host's actual byte order. Go
// has no library call for this (encoding/binary deliberately stays
// order-agnostic), so the single unsafe trick below is the idiomatic,
// stdlib-only way to detect it; see DESIGN.md for why no third-party
// dependency covers this one concern.
var nativeBigEndian = func() bool {
	var x uint16 = 1
	return *(*byte)(unsafe.Pointer(&x)) == 0
}()

// NativeBigEndian reports whether the running process's host byte order
// is big-endian.
func NativeBigEndian() bool { return nativeBigEndian }

// PrimitiveSize returns sizeof(T) for the arithmetic width markers
// (spec §4.3's "arithmetic-width marker placement").
func PrimitiveSize[T Primitive]() uint8 {
	var zero T
	switch any(zero).(type) {
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64:
		return 8
	default:
		return 0
	}
}

func writeU16(buf *Buffer, v uint16, bigEndian bool) {
	var b [2]byte
	if bigEndian {
		b[0], b[1] = byte(v>>8), byte(v)
	} else {
		b[0], b[1] = byte(v), byte(v>>8)
	}
	buf.Append(b[:])
}

func writeU32(buf *Buffer, v uint32, bigEndian bool) {
	var b [4]byte
	if bigEndian {
		b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	} else {
		b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	}
	buf.Append(b[:])
}

func writeU64(buf *Buffer, v uint64, bigEndian bool) {
	var b [8]byte
	if bigEndian {
		for i := 0; i < 8; i++ {
			b[i] = byte(v >> uint((7-i)*8))
		}
	} else {
		for i := 0; i < 8; i++ {
			b[i] = byte(v >> uint(i*8))
		}
	}
	buf.Append(b[:])
}

func readU16(buf *Buffer, bigEndian bool) (uint16, error) {
	b, err := buf.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	if bigEndian {
		return uint16(b[0])<<8 | uint16(b[1]), nil
	}
	return uint16(b[1])<<8 | uint16(b[0]), nil
}

func readU32(buf *Buffer, bigEndian bool) (uint32, error) {
	b, err := buf.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	var v uint32
	if bigEndian {
		for i := 0; i < 4; i++ {
			v = v<<8 | uint32(b[i])
		}
	} else {
		for i := 3; i >= 0; i-- {
			v = v<<8 | uint32(b[i])
		}
	}
	return v, nil
}

func readU64(buf *Buffer, bigEndian bool) (uint64, error) {
	b, err := buf.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	if bigEndian {
		for i := 0; i < 8; i++ {
			v = v<<8 | uint64(b[i])
		}
	} else {
		for i := 7; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
	}
	return v, nil
}

// WritePrimitive appends v to buf, swapping bytes when bigEndian requests
// a byte order different from in-memory storage order (the wire is always
// written MSB/LSB-explicit regardless of host order).
func WritePrimitive[T Primitive](buf *Buffer, v T, bigEndian bool) error {
	switch x := any(v).(type) {
	case bool:
		var b byte
		if x {
			b = 1
		}
		buf.AppendByte(b)
	case int8:
		buf.AppendByte(byte(x))
	case uint8:
		buf.AppendByte(x)
	case int16:
		writeU16(buf, uint16(x), bigEndian)
	case uint16:
		writeU16(buf, x, bigEndian)
	case int32:
		writeU32(buf, uint32(x), bigEndian)
	case uint32:
		writeU32(buf, x, bigEndian)
	case int64:
		writeU64(buf, uint64(x), bigEndian)
	case uint64:
		writeU64(buf, x, bigEndian)
	case float32:
		writeU32(buf, math.Float32bits(x), bigEndian)
	case float64:
		writeU64(buf, math.Float64bits(x), bigEndian)
	default:
		return ErrUnsupportedPrimitive
	}
	return nil
}

// ReadPrimitive reads one T from buf, applying the same byte-order rule
// WritePrimitive used to write it.
func ReadPrimitive[T Primitive](buf *Buffer, bigEndian bool) (v T, err error) {
	switch any(v).(type) {
	case bool:
		b, e := buf.ReadByte()
		if e != nil {
			return v, e
		}
		v = any(b != 0).(T)
	case int8:
		b, e := buf.ReadByte()
		if e != nil {
			return v, e
		}
		v = any(int8(b)).(T)
	case uint8:
		b, e := buf.ReadByte()
		if e != nil {
			return v, e
		}
		v = any(b).(T)
	case int16:
		u, e := readU16(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(int16(u)).(T)
	case uint16:
		u, e := readU16(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(u).(T)
	case int32:
		u, e := readU32(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(int32(u)).(T)
	case uint32:
		u, e := readU32(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(u).(T)
	case int64:
		u, e := readU64(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(int64(u)).(T)
	case uint64:
		u, e := readU64(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(u).(T)
	case float32:
		u, e := readU32(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(math.Float32frombits(u)).(T)
	case float64:
		u, e := readU64(buf, bigEndian)
		if e != nil {
			return v, e
		}
		v = any(math.Float64frombits(u)).(T)
	default:
		err = ErrUnsupportedPrimitive
	}
	return
}

// WriteRaw appends the raw bytes of data without any byte swapping. Callers must have already proven the session's endianness
// matches the host, or that T is endianness-tolerant (spec §4.1: "raw
// bulk writes do not swap bytes").
func WriteRaw(buf *Buffer, data []byte) {
	buf.Append(data)
}

// ReadRaw reads n raw bytes without byte swapping, the reciprocal of
// WriteRaw.
func ReadRaw(buf *Buffer, n int) ([]byte, error) {
	return buf.ReadBytes(n)
}

// WriteToAnotherSize casts value to a fixed-width integer of targetSize
// bytes, preserving signedness, and appends it. A downcast that would
// overflow the narrower width returns ErrOverflow (spec §4.1).
func WriteToAnotherSize(buf *Buffer, targetSize uint8, value int64, signed bool, bigEndian bool) error {
	switch targetSize {
	case 1:
		if signed {
			if value < math.MinInt8 || value > math.MaxInt8 {
				return ErrOverflow
			}
			return WritePrimitive(buf, int8(value), bigEndian)
		}
		if value < 0 || value > math.MaxUint8 {
			return ErrOverflow
		}
		return WritePrimitive(buf, uint8(value), bigEndian)
	case 2:
		if signed {
			if value < math.MinInt16 || value > math.MaxInt16 {
				return ErrOverflow
			}
			return WritePrimitive(buf, int16(value), bigEndian)
		}
		if value < 0 || value > math.MaxUint16 {
			return ErrOverflow
		}
		return WritePrimitive(buf, uint16(value), bigEndian)
	case 4:
		if signed {
			if value < math.MinInt32 || value > math.MaxInt32 {
				return ErrOverflow
			}
			return WritePrimitive(buf, int32(value), bigEndian)
		}
		if value < 0 || value > math.MaxUint32 {
			return ErrOverflow
		}
		return WritePrimitive(buf, uint32(value), bigEndian)
	case 8:
		if signed {
			return WritePrimitive(buf, value, bigEndian)
		}
		if value < 0 {
			return ErrOverflow
		}
		return WritePrimitive(buf, uint64(value), bigEndian)
	default:
		return ErrTypeSizeTooBig
	}
}

// ReadFromAnotherSize reads a fixed-width integer of originalSize bytes
// and widens it to int64, failing ErrDataCorrupted if a signed negative
// value was read as unsigned underflow during the reverse conversion
// (spec §4.1).
func ReadFromAnotherSize(buf *Buffer, originalSize uint8, signed bool, bigEndian bool) (int64, error) {
	switch originalSize {
	case 1:
		if signed {
			v, err := ReadPrimitive[int8](buf, bigEndian)
			return int64(v), err
		}
		v, err := ReadPrimitive[uint8](buf, bigEndian)
		return int64(v), err
	case 2:
		if signed {
			v, err := ReadPrimitive[int16](buf, bigEndian)
			return int64(v), err
		}
		v, err := ReadPrimitive[uint16](buf, bigEndian)
		return int64(v), err
	case 4:
		if signed {
			v, err := ReadPrimitive[int32](buf, bigEndian)
			return int64(v), err
		}
		v, err := ReadPrimitive[uint32](buf, bigEndian)
		return int64(v), err
	case 8:
		if signed {
			v, err := ReadPrimitive[int64](buf, bigEndian)
			return v, err
		}
		v, err := ReadPrimitive[uint64](buf, bigEndian)
		if err == nil && v > math.MaxInt64 {
			return 0, ErrDataCorrupted
		}
		return int64(v), err
	default:
		return 0, ErrTypeSizeTooBig
	}
}

// WriteSize appends a size_t-like value, choosing a 4- or 8-byte
// little/big-endian prefix from bitness32 (spec §4.1, §6).
func WriteSize(buf *Buffer, v uint64, bitness32, bigEndian bool) error {
	if bitness32 {
		if v > math.MaxUint32 {
			return ErrOverflow
		}
		return WritePrimitive(buf, uint32(v), bigEndian)
	}
	return WritePrimitive(buf, v, bigEndian)
}

// ReadSize reads the reciprocal of WriteSize.
func ReadSize(buf *Buffer, bitness32, bigEndian bool) (uint64, error) {
	if bitness32 {
		v, err := ReadPrimitive[uint32](buf, bigEndian)
		return uint64(v), err
	}
	return ReadPrimitive[uint64](buf, bigEndian)
}
