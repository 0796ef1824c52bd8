package client

import (
	"context"
	"testing"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/body"
	"github.com/cspproto/csp/header"
	"github.com/cspproto/csp/registrar"
	"github.com/cspproto/csp/server"
	"github.com/cspproto/csp/session"
	"github.com/cspproto/csp/wire"
)

// EchoMsg is a minimal ISerializable type used to exercise a full
// client/server round trip.
type EchoMsg struct {
	Value uint32
}

var echoTypeID = csp.NewId()

func (EchoMsg) TypeID() csp.Id                             { return echoTypeID }
func (EchoMsg) LatestInterfaceVersion() csp.InterfaceVersion { return 1 }
func (EchoMsg) PrivateVersions() []csp.InterfaceVersion      { return []csp.InterfaceVersion{1} }

var _ body.ISerializable = EchoMsg{}

type doublingHandler struct {
	iface csp.InterfaceDescriptor
}

func (h doublingHandler) HandleData(ctx context.Context, in []byte) ([]byte, error) {
	rb := wire.NewBuffer(in)
	rctx := session.NewData(session.NewCommon(rb, session.Deserialize, 1, csp.MessageData, 0), h.iface.MandatoryDataFlags, h.iface.Version, false)
	var msg EchoMsg
	if err := body.Deserialize(rctx, &msg); err != nil {
		return nil, err
	}
	msg.Value *= 2

	out := wire.NewEmptyBuffer()
	if err := header.WriteData(out, header.Data{TypeID: h.iface.ID, InterfaceVersion: h.iface.Version, DataFlags: h.iface.MandatoryDataFlags}, false); err != nil {
		return nil, err
	}
	wctx := session.NewData(session.NewCommon(out, session.Serialize, 1, csp.MessageData, 0), h.iface.MandatoryDataFlags, h.iface.Version, false)
	if err := body.Serialize(msg, wctx); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func echoSettings() csp.PartySettings {
	return csp.PartySettings{
		ProtocolVersions: []csp.ProtocolVersion{1},
		Interfaces: []csp.InterfaceDescriptor{{
			ID:      echoTypeID,
			Version: 1,
		}},
	}
}

type directComm struct{ srv *server.Server }

func (d directComm) Send(ctx context.Context, req []byte) ([]byte, error) {
	return d.srv.HandleMessage(ctx, req)
}

func newEchoServer(t *testing.T) *server.Server {
	t.Helper()
	settings := echoSettings()
	reg := registrar.New()
	if err := reg.Register(echoTypeID, false, "echo-service", doublingHandler{iface: settings.Interfaces[0]}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return server.New(settings, reg)
}

func TestHandleDataRoundTrip(t *testing.T) {
	srv := newEchoServer(t)
	cl := NewFromSettings(directComm{srv}, echoSettings())

	var reply EchoMsg
	status, err := cl.HandleData(context.Background(), EchoMsg{Value: 21}, &reply)
	if err != nil {
		t.Fatalf("HandleData: %v", err)
	}
	if status != csp.StatusNoError {
		t.Fatalf("unexpected status %v", status)
	}
	if reply.Value != 42 {
		t.Fatalf("expected doubled value 42, got %d", reply.Value)
	}
}

func TestHandshakeNegotiatesSettings(t *testing.T) {
	srv := newEchoServer(t)
	cl, err := Handshake(context.Background(), directComm{srv}, echoSettings())
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if !cl.Valid() {
		t.Fatal("expected valid negotiated settings")
	}
	if len(cl.Settings.Interfaces) != 1 || !cl.Settings.Interfaces[0].ID.Equal(echoTypeID) {
		t.Fatalf("unexpected negotiated interfaces: %+v", cl.Settings.Interfaces)
	}
}

func TestHandleDataNoSuchHandler(t *testing.T) {
	settings := echoSettings()
	reg := registrar.New() // nothing registered
	srv := server.New(settings, reg)
	cl := NewFromSettings(directComm{srv}, settings)

	var reply EchoMsg
	status, err := cl.HandleData(context.Background(), EchoMsg{Value: 1}, &reply)
	if err == nil {
		t.Fatal("expected an error for an unregistered handler")
	}
	if status != csp.StatusErrorNoSuchHandler {
		t.Fatalf("expected StatusErrorNoSuchHandler, got %v", status)
	}
}

func TestHandshakeNoCommonProtocolVersion(t *testing.T) {
	srv := newEchoServer(t)
	mine := echoSettings()
	mine.ProtocolVersions = []csp.ProtocolVersion{99}
	if _, err := Handshake(context.Background(), directComm{srv}, mine); err != csp.ErrNotSupportedProtocolVersion {
		t.Fatalf("expected ErrNotSupportedProtocolVersion, got %v", err)
	}
}
