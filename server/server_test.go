package server

import (
	"context"
	"testing"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/header"
	"github.com/cspproto/csp/registrar"
	"github.com/cspproto/csp/wire"
)

func settingsFixture() csp.PartySettings {
	return csp.PartySettings{
		ProtocolVersions: []csp.ProtocolVersion{1},
		Interfaces: []csp.InterfaceDescriptor{{
			ID:      csp.NewId(),
			Version: 1,
		}},
	}
}

func TestHandleMessageUnsupportedProtocolVersion(t *testing.T) {
	settings := settingsFixture()
	srv := New(settings, registrar.New())

	buf := wire.NewEmptyBuffer()
	if err := header.WriteCommon(buf, header.Common{ProtocolVersion: 77, MessageType: csp.MessageGetSettings}); err != nil {
		t.Fatalf("WriteCommon: %v", err)
	}
	resp, err := srv.HandleMessage(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	rb := wire.NewBuffer(resp)
	ch, err := header.ReadCommon(rb)
	if err != nil {
		t.Fatalf("ReadCommon: %v", err)
	}
	if ch.MessageType != csp.MessageStatus {
		t.Fatalf("expected a status reply, got %v", ch.MessageType)
	}
	status, err := wire.ReadPrimitive[int32](rb, false)
	if err != nil {
		t.Fatalf("ReadPrimitive: %v", err)
	}
	if csp.Status(status) != csp.ErrNotSupportedProtocolVersion {
		t.Fatalf("expected ErrNotSupportedProtocolVersion, got %v", csp.Status(status))
	}
}

func TestHandleMessageGetSettings(t *testing.T) {
	settings := settingsFixture()
	srv := New(settings, registrar.New())

	buf := wire.NewEmptyBuffer()
	if err := header.WriteCommon(buf, header.Common{ProtocolVersion: 1, MessageType: csp.MessageGetSettings}); err != nil {
		t.Fatalf("WriteCommon: %v", err)
	}
	resp, err := srv.HandleMessage(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	rb := wire.NewBuffer(resp)
	ch, err := header.ReadCommon(rb)
	if err != nil {
		t.Fatalf("ReadCommon: %v", err)
	}
	if ch.MessageType != csp.MessageGetSettings {
		t.Fatalf("expected a settings reply, got %v", ch.MessageType)
	}
	got, err := header.ReadSettings(rb, ch.CommonFlags.Bitness32(), ch.CommonFlags.BigEndian())
	if err != nil {
		t.Fatalf("ReadSettings: %v", err)
	}
	if len(got.Interfaces) != 1 || !got.Interfaces[0].ID.Equal(settings.Interfaces[0].ID) {
		t.Fatalf("unexpected settings reply: %+v", got)
	}
}

func TestHandleMessageDataNoHandler(t *testing.T) {
	settings := settingsFixture()
	srv := New(settings, registrar.New())

	buf := wire.NewEmptyBuffer()
	if err := header.WriteCommon(buf, header.Common{ProtocolVersion: 1, MessageType: csp.MessageData}); err != nil {
		t.Fatalf("WriteCommon: %v", err)
	}
	if err := header.WriteData(buf, header.Data{TypeID: settings.Interfaces[0].ID, InterfaceVersion: 1}, false); err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	resp, err := srv.HandleMessage(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	rb := wire.NewBuffer(resp)
	if _, err := header.ReadCommon(rb); err != nil {
		t.Fatalf("ReadCommon: %v", err)
	}
	status, err := wire.ReadPrimitive[int32](rb, false)
	if err != nil {
		t.Fatalf("ReadPrimitive: %v", err)
	}
	if csp.Status(status) != csp.ErrNoSuchHandler {
		t.Fatalf("expected ErrNoSuchHandler, got %v", csp.Status(status))
	}
}
