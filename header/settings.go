package header

import (
	"github.com/cspproto/csp"
	"github.com/cspproto/csp/wire"
)

// WriteSettings serializes a CspPartySettings structure (spec §6):
// `{ protocol_versions: Vec<u8>, mandatory_common_flags: u32,
// forbidden_common_flags: u32, interfaces: Vec<Interface> }`. This is the
// GetSettings reply body, serialized as plain data over the session's
// bitness/endianness policy with no further data-header wrapping.
func WriteSettings(buf *wire.Buffer, bitness32, bigEndian bool, s csp.PartySettings) error {
	if err := wire.WriteSize(buf, uint64(len(s.ProtocolVersions)), bitness32, bigEndian); err != nil {
		return err
	}
	for _, v := range s.ProtocolVersions {
		if err := wire.WritePrimitive(buf, uint8(v), bigEndian); err != nil {
			return err
		}
	}
	if err := wire.WritePrimitive(buf, uint32(s.MandatoryCommonFlags), bigEndian); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, uint32(s.ForbiddenCommonFlags), bigEndian); err != nil {
		return err
	}
	if err := wire.WriteSize(buf, uint64(len(s.Interfaces)), bitness32, bigEndian); err != nil {
		return err
	}
	for _, iface := range s.Interfaces {
		if err := writeInterfaceDescriptor(buf, bigEndian, iface); err != nil {
			return err
		}
	}
	return nil
}

// ReadSettings is the reciprocal of WriteSettings.
func ReadSettings(buf *wire.Buffer, bitness32, bigEndian bool) (csp.PartySettings, error) {
	var s csp.PartySettings
	n, err := wire.ReadSize(buf, bitness32, bigEndian)
	if err != nil {
		return s, err
	}
	s.ProtocolVersions = make([]csp.ProtocolVersion, n)
	for i := range s.ProtocolVersions {
		v, err := wire.ReadPrimitive[uint8](buf, bigEndian)
		if err != nil {
			return s, err
		}
		s.ProtocolVersions[i] = csp.ProtocolVersion(v)
	}
	mcf, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return s, err
	}
	fcf, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return s, err
	}
	s.MandatoryCommonFlags = csp.CommonFlags(mcf)
	s.ForbiddenCommonFlags = csp.CommonFlags(fcf)

	ifaceCount, err := wire.ReadSize(buf, bitness32, bigEndian)
	if err != nil {
		return s, err
	}
	s.Interfaces = make([]csp.InterfaceDescriptor, ifaceCount)
	for i := range s.Interfaces {
		iface, err := readInterfaceDescriptor(buf, bigEndian)
		if err != nil {
			return s, err
		}
		s.Interfaces[i] = iface
	}
	return s, nil
}

func writeInterfaceDescriptor(buf *wire.Buffer, bigEndian bool, d csp.InterfaceDescriptor) error {
	if err := wire.WritePrimitive(buf, d.ID.Low, bigEndian); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, d.ID.High, bigEndian); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, uint32(d.Version), bigEndian); err != nil {
		return err
	}
	if err := wire.WritePrimitive(buf, uint32(d.MandatoryDataFlags), bigEndian); err != nil {
		return err
	}
	return wire.WritePrimitive(buf, uint32(d.ForbiddenDataFlags), bigEndian)
}

func readInterfaceDescriptor(buf *wire.Buffer, bigEndian bool) (csp.InterfaceDescriptor, error) {
	var d csp.InterfaceDescriptor
	low, err := wire.ReadPrimitive[uint64](buf, bigEndian)
	if err != nil {
		return d, err
	}
	high, err := wire.ReadPrimitive[uint64](buf, bigEndian)
	if err != nil {
		return d, err
	}
	version, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return d, err
	}
	mdf, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return d, err
	}
	fdf, err := wire.ReadPrimitive[uint32](buf, bigEndian)
	if err != nil {
		return d, err
	}
	d.ID = csp.Id{Low: low, High: high}
	d.Version = csp.InterfaceVersion(version)
	d.MandatoryDataFlags = csp.DataFlags(mdf)
	d.ForbiddenDataFlags = csp.DataFlags(fdf)
	return d, nil
}
