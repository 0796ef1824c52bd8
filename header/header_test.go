package header

import (
	"testing"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/wire"
)

func TestCommonHeaderRoundTrip(t *testing.T) {
	buf := wire.NewEmptyBuffer()
	in := Common{ProtocolVersion: 1, MessageType: csp.MessageGetSettings, CommonFlags: csp.FlagBigEndianFormat}
	if err := WriteCommon(buf, in); err != nil {
		t.Fatal(err)
	}
	if got := buf.Len(); got != 10 {
		t.Fatalf("common header should be 10 bytes, got %d", got)
	}

	rb := wire.NewBuffer(buf.Bytes())
	out, err := ReadCommon(rb)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestDataHeaderRoundTrip(t *testing.T) {
	buf := wire.NewEmptyBuffer()
	in := Data{TypeID: csp.NewId(), InterfaceVersion: 3, DataFlags: csp.FlagAllowUnmanagedPointers}
	if err := WriteData(buf, in, true); err != nil {
		t.Fatal(err)
	}
	if got := buf.Len(); got != 24 {
		t.Fatalf("data header should be 24 bytes, got %d", got)
	}

	rb := wire.NewBuffer(buf.Bytes())
	out, err := ReadData(rb, true)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestUnsupportedProtocolVersionBody(t *testing.T) {
	buf := wire.NewEmptyBuffer()
	versions := []csp.ProtocolVersion{2, 1}
	if err := WriteUnsupportedProtocolVersionBody(buf, versions, false); err != nil {
		t.Fatal(err)
	}
	rb := wire.NewBuffer(buf.Bytes())
	out, err := ReadUnsupportedProtocolVersionBody(rb, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0] != 2 || out[1] != 1 {
		t.Fatalf("unexpected versions: %v", out)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	buf := wire.NewEmptyBuffer()
	in := csp.PartySettings{
		ProtocolVersions:     []csp.ProtocolVersion{2, 1},
		MandatoryCommonFlags: csp.FlagBitness32,
		Interfaces: []csp.InterfaceDescriptor{
			{ID: csp.NewId(), Version: 5, MandatoryDataFlags: csp.FlagAllowUnmanagedPointers},
		},
	}
	if err := WriteSettings(buf, false, false, in); err != nil {
		t.Fatal(err)
	}
	rb := wire.NewBuffer(buf.Bytes())
	out, err := ReadSettings(rb, false, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Interfaces) != 1 || !out.Interfaces[0].ID.Equal(in.Interfaces[0].ID) {
		t.Fatalf("settings round trip mismatch: %+v", out)
	}
}
