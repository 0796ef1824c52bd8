package body

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/session"
	"github.com/cspproto/csp/wire"
)

func newCtx(t *testing.T, dir session.Direction, buf []byte, flags csp.DataFlags, bigEndian bool) *session.Data {
	t.Helper()
	var wb *wire.Buffer
	if dir == session.Deserialize {
		wb = wire.NewBuffer(buf)
	} else {
		wb = wire.NewEmptyBuffer()
	}
	var cf csp.CommonFlags
	if bigEndian {
		cf |= csp.FlagBigEndianFormat
	}
	common := session.NewCommon(wb, dir, 1, csp.MessageData, cf)
	return session.NewData(common, flags, csp.InterfaceVersionUndefined, flags.Has(csp.FlagCheckRecursivePointers))
}

func TestSerializeArithmeticBigEndianOnLittleHost(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, 0, true)
	require.NoError(t, Serialize(uint32(0x11223344), ctx))
	require.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, ctx.Buf.Bytes())
}

type simplePair struct {
	A uint16
	S uint8
}

func init() {
	RegisterTraits(simplePair{}, Traits{AlwaysSimplyAssignable: true})
}

func TestSimplyAssignableStructRoundTrip(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, 0, false)
	in := simplePair{A: 1, S: 2}
	require.NoError(t, Serialize(in, ctx))

	out := ctx.Buf.Bytes()
	rctx := newCtx(t, session.Deserialize, append([]byte(nil), out...), 0, false)
	var got simplePair
	require.NoError(t, Deserialize(rctx, &got))
	require.Equal(t, in, got)
}

func TestPointerNullEncodesAsZero(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, csp.FlagAllowUnmanagedPointers, false)
	var p *int32
	require.NoError(t, Serialize(p, ctx))
	require.Equal(t, []byte{0}, ctx.Buf.Bytes())
}

func TestPointerRoundTripNonNil(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, csp.FlagAllowUnmanagedPointers, false)
	v := int32(42)
	require.NoError(t, Serialize(&v, ctx))

	rctx := newCtx(t, session.Deserialize, append([]byte(nil), ctx.Buf.Bytes()...), csp.FlagAllowUnmanagedPointers, false)
	var out *int32
	require.NoError(t, Deserialize(rctx, &out))
	require.NotNil(t, out)
	require.Equal(t, int32(42), *out)
}

func TestRecursivePointerDedup(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, csp.FlagAllowUnmanagedPointers|csp.FlagCheckRecursivePointers, false)
	shared := int32(7)
	type pair struct {
		A *int32
		B *int32
	}
	p := pair{A: &shared, B: &shared}
	require.NoError(t, Serialize(p.A, ctx))
	firstWriteLen := ctx.Buf.Len()
	require.NoError(t, Serialize(p.B, ctx))
	// the second pointer must encode as a short back-reference key alone,
	// not another full size-prefixed int32 body.
	require.Less(t, ctx.Buf.Len()-firstWriteLen, firstWriteLen)
}

func TestPointerRequiresAllowUnmanagedFlag(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, 0, false)
	v := int32(1)
	err := Serialize(&v, ctx)
	require.ErrorIs(t, err, csp.ErrNotSupportedSerializationSettingsForStruct)
}

func TestEmptyVecEncodesSizePrefixOnly(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, 0, false)
	var empty []byte
	require.NoError(t, Serialize(empty, ctx))
	require.Equal(t, 8, len(ctx.Buf.Bytes()))
	for _, b := range ctx.Buf.Bytes() {
		require.Zero(t, b)
	}
}

func TestSliceRoundTrip(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, 0, false)
	in := []uint32{1, 2, 3, 4}
	require.NoError(t, Serialize(in, ctx))

	rctx := newCtx(t, session.Deserialize, append([]byte(nil), ctx.Buf.Bytes()...), 0, false)
	var out []uint32
	require.NoError(t, Deserialize(rctx, &out))
	require.Equal(t, in, out)
}

func TestWidthMismatchPromotion(t *testing.T) {
	ctx := newCtx(t, session.Serialize, nil, csp.FlagSizeOfIntegersMayBeNotEqual, false)
	require.NoError(t, Serialize(42, ctx))

	rctx := newCtx(t, session.Deserialize, append([]byte(nil), ctx.Buf.Bytes()...), csp.FlagSizeOfIntegersMayBeNotEqual, false)
	var out int
	require.NoError(t, Deserialize(rctx, &out))
	require.Equal(t, 42, out)
}
