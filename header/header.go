// Package header implements the common-header, data-header, and
// status-message framing described in spec §4.4/§6: the fixed,
// always-little-endian envelope that precedes every CSP message, plus
// the per-type data header and the status/negotiation payloads that
// follow it in session endianness.
//
// Grounded on gravwell's ingest/entryWriter.go IngestCommand framing
// (fixed magic + length fields ahead of a variable body) and
// ingest/api.go's StreamConfiguration.Write/Read (explicit little-endian
// field-at-a-time encode/decode), generalized into a reusable codec
// instead of one struct's bespoke methods.
package header

import (
	"github.com/cspproto/csp"
	"github.com/cspproto/csp/wire"
)

// Common is the 10-byte frame every CSP message begins with (spec §6):
// protocol version widened to u16, message type, and common flags, all
// little-endian regardless of the session's negotiated byte order.
type Common struct {
	ProtocolVersion csp.ProtocolVersion
	MessageType     csp.MessageType
	CommonFlags     csp.CommonFlags
}

// WriteCommon appends a common header to buf.
func WriteCommon(buf *wire.Buffer, h Common) error {
	if err := wire.WritePrimitive(buf, uint16(h.ProtocolVersion), false); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, uint32(h.MessageType), false); err != nil {
		return err
	}
	return wire.WritePrimitive(buf, uint32(h.CommonFlags), false)
}

// ReadCommon reads a common header from buf.
func ReadCommon(buf *wire.Buffer) (Common, error) {
	var h Common
	pv, err := wire.ReadPrimitive[uint16](buf, false)
	if err != nil {
		return h, err
	}
	mt, err := wire.ReadPrimitive[uint32](buf, false)
	if err != nil {
		return h, err
	}
	cf, err := wire.ReadPrimitive[uint32](buf, false)
	if err != nil {
		return h, err
	}
	h.ProtocolVersion = csp.ProtocolVersion(pv)
	h.MessageType = csp.MessageType(mt)
	h.CommonFlags = csp.CommonFlags(cf)
	return h, nil
}

// Data is the header that follows the common header on a Data message
// (spec §6): the wire type id, the interface version the payload was
// written at, and the effective data flags used to encode it. Unlike
// Common, Data is written in session endianness.
type Data struct {
	TypeID           csp.Id
	InterfaceVersion csp.InterfaceVersion
	DataFlags        csp.DataFlags
}

// WriteData appends a data header to buf, swapping bytes per bigEndian.
func WriteData(buf *wire.Buffer, h Data, bigEndian bool) error {
	if err := wire.WritePrimitive(buf, h.TypeID.Low, bigEndian); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, h.TypeID.High, bigEndian); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, uint32(h.InterfaceVersion), bigEndian); err != nil {
		return err
	}
	return wire.WritePrimitive(buf, uint32(h.DataFlags), bigEndian)
}

// ReadData reads a data header, reciprocal of WriteData.
func ReadData(buf *wire.Buffer, bigEndian bool) (Data, error) {
	var h Data
	low, err := wire.ReadPrimitive[uint64](buf, bigEndian)
	if err != nil {
		return h, err
	}
	high, err := wire.ReadPrimitive[uint64](buf, bigEndian)
	if err != nil {
		return h, err
	}
	iv, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return h, err
	}
	df, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return h, err
	}
	h.TypeID = csp.Id{Low: low, High: high}
	h.InterfaceVersion = csp.InterfaceVersion(iv)
	h.DataFlags = csp.DataFlags(df)
	return h, nil
}

// WriteStatus appends the i32 status code of a status-message body. It
// writes no payload; the structured payloads of the two negotiation
// failures are appended separately with WriteUnsupportedProtocolVersionBody
// and WriteUnsupportedInterfaceVersionBody.
func WriteStatus(buf *wire.Buffer, status csp.Status, bigEndian bool) error {
	if err := wire.WritePrimitive(buf, int32(status), bigEndian); err != nil {
		return err
	}
	return nil
}

// WriteUnsupportedProtocolVersionBody appends the ErrorNotSupportedProtocolVersion
// payload: a u8 count followed by that many u8 supported-version bytes.
func WriteUnsupportedProtocolVersionBody(buf *wire.Buffer, supported []csp.ProtocolVersion, bigEndian bool) error {
	if len(supported) > 0xff {
		return csp.ErrOverflow
	}
	if err := wire.WritePrimitive(buf, uint8(len(supported)), bigEndian); err != nil {
		return err
	}
	for _, v := range supported {
		if err := wire.WritePrimitive(buf, uint8(v), bigEndian); err != nil {
			return err
		}
	}
	return nil
}

// ReadUnsupportedProtocolVersionBody is the reciprocal of
// WriteUnsupportedProtocolVersionBody.
func ReadUnsupportedProtocolVersionBody(buf *wire.Buffer, bigEndian bool) ([]csp.ProtocolVersion, error) {
	count, err := wire.ReadPrimitive[uint8](buf, bigEndian)
	if err != nil {
		return nil, err
	}
	out := make([]csp.ProtocolVersion, count)
	for i := range out {
		v, err := wire.ReadPrimitive[uint8](buf, bigEndian)
		if err != nil {
			return nil, err
		}
		out[i] = csp.ProtocolVersion(v)
	}
	return out, nil
}

// WriteUnsupportedInterfaceVersionBody appends the
// ErrorNotSupportedInterfaceVersion payload: the minimum acceptable
// interface version followed by the output type's Id.
func WriteUnsupportedInterfaceVersionBody(buf *wire.Buffer, minimum csp.InterfaceVersion, outputType csp.Id, bigEndian bool) error {
	if err := wire.WritePrimitive(buf, uint32(minimum), bigEndian); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, outputType.Low, bigEndian); err != nil {
		return err
	}
	return wire.WritePrimitive(buf, outputType.High, bigEndian)
}

// ReadUnsupportedInterfaceVersionBody is the reciprocal of
// WriteUnsupportedInterfaceVersionBody.
func ReadUnsupportedInterfaceVersionBody(buf *wire.Buffer, bigEndian bool) (minimum csp.InterfaceVersion, outputType csp.Id, err error) {
	m, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return 0, csp.Id{}, err
	}
	low, err := wire.ReadPrimitive[uint64](buf, bigEndian)
	if err != nil {
		return 0, csp.Id{}, err
	}
	high, err := wire.ReadPrimitive[uint64](buf, bigEndian)
	if err != nil {
		return 0, csp.Id{}, err
	}
	return csp.InterfaceVersion(m), csp.Id{Low: low, High: high}, nil
}
