// Package server implements the CSP server envelope (spec §4.8): owning
// published settings and a dispatch registrar, and routing a single
// inbound message buffer to the right handler(s), producing a reply
// buffer in return.
//
// Grounded on gravwell's ingest/muxer.go IngestMuxer, which centralizes
// exactly this "accept one message, look up the right child connection,
// dispatch, reply" loop; this package narrows that to one synchronous
// call per message rather than muxer.go's long-lived goroutine-per-
// connection model, since CSP's transport is an external collaborator
// (spec §1 non-goals) rather than something this core owns.
package server

import (
	"context"
	"fmt"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/header"
	"github.com/cspproto/csp/log"
	"github.com/cspproto/csp/registrar"
	"github.com/cspproto/csp/wire"
)

// Server owns the settings this deployment publishes and the registrar
// handlers are registered against.
type Server struct {
	Settings  csp.PartySettings
	Registrar *registrar.Registrar
	Logger    log.Logger
	Metrics   *Metrics
}

// New builds a Server around settings and reg, logging to
// log.DiscardLogger until s.Logger is set.
func New(settings csp.PartySettings, reg *registrar.Registrar) *Server {
	return &Server{Settings: settings, Registrar: reg, Logger: log.DiscardLogger}
}

// HandleMessage implements spec §4.8 "Server.handleMessage": read the
// common header; if the protocol version isn't supported, reply with
// ErrorNotSupportedProtocolVersion and the list this server accepts.
// Otherwise dispatch by message type.
//
// A registrar.Handler's HandleData is expected to return a complete Data
// message body — a data header (header.WriteData) followed by the
// serialized output — ready to be wrapped in a common header and
// returned as-is; this keeps the server itself agnostic to the
// handler's output type.
func (s *Server) HandleMessage(ctx context.Context, in []byte) ([]byte, error) {
	rb := wire.NewBuffer(in)
	ch, err := header.ReadCommon(rb)
	if err != nil {
		return nil, err
	}

	if !s.protocolSupported(ch.ProtocolVersion) {
		s.Logger.Warn(fmt.Sprintf("server: rejecting unsupported protocol version %v", ch.ProtocolVersion))
		s.Metrics.rejectDelta(1)
		return s.unsupportedProtocolReply()
	}

	switch ch.MessageType {
	case csp.MessageGetSettings:
		return s.settingsReply(ch.ProtocolVersion)
	case csp.MessageData:
		return s.handleDataMessage(ctx, rb, ch)
	default:
		return s.statusReply(ch, csp.StatusErrorInvalidArgument)
	}
}

func (s *Server) protocolSupported(pv csp.ProtocolVersion) bool {
	for _, v := range s.Settings.ProtocolVersions {
		if v == pv {
			return true
		}
	}
	return false
}

func (s *Server) unsupportedProtocolReply() ([]byte, error) {
	out := wire.NewEmptyBuffer()
	pv := csp.ProtocolVersion(0)
	if len(s.Settings.ProtocolVersions) > 0 {
		pv = s.Settings.ProtocolVersions[0]
	}
	if err := header.WriteCommon(out, header.Common{ProtocolVersion: pv, MessageType: csp.MessageStatus}); err != nil {
		return nil, err
	}
	if err := header.WriteStatus(out, csp.ErrNotSupportedProtocolVersion, false); err != nil {
		return nil, err
	}
	if err := header.WriteUnsupportedProtocolVersionBody(out, s.Settings.ProtocolVersions, false); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (s *Server) settingsReply(pv csp.ProtocolVersion) ([]byte, error) {
	out := wire.NewEmptyBuffer()
	flags := s.Settings.MandatoryCommonFlags
	if err := header.WriteCommon(out, header.Common{ProtocolVersion: pv, MessageType: csp.MessageGetSettings, CommonFlags: flags}); err != nil {
		return nil, err
	}
	if err := header.WriteSettings(out, flags.Bitness32(), flags.BigEndian(), s.Settings); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (s *Server) statusReply(ch header.Common, status csp.Status) ([]byte, error) {
	out := wire.NewEmptyBuffer()
	if err := header.WriteCommon(out, header.Common{ProtocolVersion: ch.ProtocolVersion, MessageType: csp.MessageStatus, CommonFlags: ch.CommonFlags}); err != nil {
		return nil, err
	}
	if err := header.WriteStatus(out, status, ch.CommonFlags.BigEndian()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (s *Server) handleDataMessage(ctx context.Context, rb *wire.Buffer, ch header.Common) ([]byte, error) {
	if !ch.CommonFlags.Has(s.Settings.MandatoryCommonFlags) {
		return s.statusReply(ch, csp.ErrNotCompatibleCommonFlagsSettings)
	}
	dh, err := header.ReadData(rb, ch.CommonFlags.BigEndian())
	if err != nil {
		return nil, err
	}
	handles, err := s.Registrar.Acquire(dh.TypeID)
	if err != nil {
		s.Logger.Warn(fmt.Sprintf("server: dispatch for %s failed: %v", dh.TypeID, err))
		s.Metrics.dispatchDelta("error")
		return s.statusReply(ch, csp.StatusFromError(err))
	}
	s.Metrics.dispatchDelta("ok")
	defer func() {
		for _, h := range handles {
			s.Registrar.Release(h)
		}
	}()

	remaining, err := rb.ReadBytes(rb.Remaining())
	if err != nil {
		return nil, err
	}
	var reply []byte
	var handlerErr error
	for i, h := range handles {
		res, err := h.Handler.HandleData(ctx, remaining)
		if i == 0 {
			reply, handlerErr = res, err
		}
	}
	if handlerErr != nil {
		return s.statusReply(ch, csp.StatusFromError(handlerErr))
	}

	out := wire.NewEmptyBuffer()
	if err := header.WriteCommon(out, header.Common{ProtocolVersion: ch.ProtocolVersion, MessageType: csp.MessageData, CommonFlags: ch.CommonFlags}); err != nil {
		return nil, err
	}
	out.Append(reply)
	return out.Bytes(), nil
}
