// Package client implements the CSP client envelope (spec §4.8): owning
// a negotiated settings snapshot and a byte-oriented communicator,
// performing the version/settings handshake, and wrapping a single
// request/response exchange (handleData) around the body processor.
//
// Grounded on gravwell's ingest/ingestConnection.go IngestConnection,
// which owns exactly this shape of state (a connection, negotiated tags,
// a mutex) and performs its own multi-step handshake
// (IdentifyIngester/IngestOK) before any entries flow; this generalizes
// that one-time handshake into the version/settings negotiation §4.8
// describes.
package client

import (
	"context"
	"fmt"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/body"
	"github.com/cspproto/csp/header"
	"github.com/cspproto/csp/log"
	"github.com/cspproto/csp/session"
	"github.com/cspproto/csp/wire"
)

// Communicator is the transport abstraction the spec calls
// IClientToServerCommunicator: send a request frame, get back a response
// frame. CSP treats it as an external collaborator (spec §1 non-goals);
// package transport supplies one concrete implementation.
type Communicator interface {
	Send(ctx context.Context, req []byte) (resp []byte, err error)
}

// protocolVersionUndefined is the 8-bit sentinel used in the first
// handshake round-trip (spec §8 concrete scenario 5: "client sends
// protocol_version=0xFF").
const protocolVersionUndefined csp.ProtocolVersion = 0xFF

// Client owns a negotiated settings snapshot and the communicator used
// to reach the server.
type Client struct {
	Comm     Communicator
	Settings csp.PartySettings // the negotiated (intersected) settings
	Logger   log.Logger

	chosenProtocolVersion csp.ProtocolVersion
}

// NewFromSettings builds a Client around an already-agreed settings
// snapshot, skipping the handshake (spec §4.8 "Init ... by supplying
// settings directly").
func NewFromSettings(comm Communicator, settings csp.PartySettings) *Client {
	pv := csp.ProtocolVersion(0)
	if len(settings.ProtocolVersions) > 0 {
		pv = settings.ProtocolVersions[0]
	}
	return &Client{Comm: comm, Settings: settings, chosenProtocolVersion: pv, Logger: log.DiscardLogger}
}

// Handshake performs the four-step negotiation spec §4.8 describes:
// fetch the server's supported protocol versions, pick the highest
// common one, fetch the server's settings at that version, and
// intersect with mine. Returns ErrNotSupportedProtocolVersion if no
// protocol version is shared, or a Client whose Settings is invalid
// (Settings.Valid() == false) if no interface is shared.
func Handshake(ctx context.Context, comm Communicator, mine csp.PartySettings) (*Client, error) {
	serverVersions, err := fetchServerProtocolVersions(ctx, comm)
	if err != nil {
		return nil, err
	}
	chosen, ok := csp.HighestCommon(mine.ProtocolVersions, serverVersions)
	if !ok {
		return nil, csp.ErrNotSupportedProtocolVersion
	}
	serverSettings, err := fetchServerSettings(ctx, comm, chosen)
	if err != nil {
		return nil, err
	}
	intersected := mine.Intersect(serverSettings)
	return &Client{Comm: comm, Settings: intersected, chosenProtocolVersion: chosen, Logger: log.DiscardLogger}, nil
}

// Valid reports whether the client's negotiated settings are usable.
func (c *Client) Valid() bool { return c.Settings.Valid() }

func fetchServerProtocolVersions(ctx context.Context, comm Communicator) ([]csp.ProtocolVersion, error) {
	buf := wire.NewEmptyBuffer()
	if err := header.WriteCommon(buf, header.Common{ProtocolVersion: protocolVersionUndefined, MessageType: csp.MessageStatus}); err != nil {
		return nil, err
	}
	respBytes, err := comm.Send(ctx, buf.Bytes())
	if err != nil {
		return nil, err
	}
	rb := wire.NewBuffer(respBytes)
	ch, err := header.ReadCommon(rb)
	if err != nil {
		return nil, err
	}
	if ch.MessageType != csp.MessageStatus {
		return nil, csp.ErrInternal
	}
	status, err := wire.ReadPrimitive[int32](rb, ch.CommonFlags.BigEndian())
	if err != nil {
		return nil, err
	}
	if csp.Status(status) != csp.ErrNotSupportedProtocolVersion {
		return nil, csp.Status(status)
	}
	return header.ReadUnsupportedProtocolVersionBody(rb, ch.CommonFlags.BigEndian())
}

func fetchServerSettings(ctx context.Context, comm Communicator, chosen csp.ProtocolVersion) (csp.PartySettings, error) {
	buf := wire.NewEmptyBuffer()
	if err := header.WriteCommon(buf, header.Common{ProtocolVersion: chosen, MessageType: csp.MessageGetSettings}); err != nil {
		return csp.PartySettings{}, err
	}
	respBytes, err := comm.Send(ctx, buf.Bytes())
	if err != nil {
		return csp.PartySettings{}, err
	}
	rb := wire.NewBuffer(respBytes)
	ch, err := header.ReadCommon(rb)
	if err != nil {
		return csp.PartySettings{}, err
	}
	if ch.MessageType != csp.MessageGetSettings {
		return csp.PartySettings{}, csp.ErrInternal
	}
	return header.ReadSettings(rb, ch.CommonFlags.Bitness32(), ch.CommonFlags.BigEndian())
}

// HandleData implements spec §4.8 "handleData": serialize input (which
// must satisfy body.ISerializable) under the client's negotiated
// settings, send it, and decode the reply into output. If the reply is
// a Status frame, that status is returned verbatim as the error.
func (c *Client) HandleData(ctx context.Context, input any, output any) (csp.Status, error) {
	iser, ok := input.(body.ISerializable)
	if !ok {
		return csp.StatusErrorInvalidType, csp.ErrInvalidType
	}
	iface, ok := c.Settings.Interface(iser.TypeID())
	if !ok {
		c.Logger.Warn(fmt.Sprintf("client: no negotiated interface for type %s", iser.TypeID()))
		return csp.StatusErrorNoSupportedInterfaces, csp.ErrNoSupportedInterfaces
	}
	effFlags, err := iface.EffectiveFlags(0)
	if err != nil {
		return csp.StatusFromError(err), err
	}

	buf := wire.NewEmptyBuffer()
	if err := header.WriteCommon(buf, header.Common{
		ProtocolVersion: c.chosenProtocolVersion,
		MessageType:     csp.MessageData,
		CommonFlags:     c.Settings.MandatoryCommonFlags,
	}); err != nil {
		return csp.StatusErrorInternal, err
	}
	if err := header.WriteData(buf, header.Data{TypeID: iser.TypeID(), InterfaceVersion: iface.Version, DataFlags: effFlags}, c.Settings.MandatoryCommonFlags.BigEndian()); err != nil {
		return csp.StatusErrorInternal, err
	}

	common := session.NewCommon(buf, session.Serialize, c.chosenProtocolVersion, csp.MessageData, c.Settings.MandatoryCommonFlags)
	ctxData := session.NewData(common, effFlags, iface.Version, effFlags.Has(csp.FlagCheckRecursivePointers))
	if err := body.Serialize(input, ctxData); err != nil {
		return csp.StatusFromError(err), err
	}

	respBytes, err := c.Comm.Send(ctx, buf.Bytes())
	if err != nil {
		return csp.StatusErrorInternal, err
	}
	rb := wire.NewBuffer(respBytes)
	ch, err := header.ReadCommon(rb)
	if err != nil {
		return csp.StatusErrorInternal, err
	}
	if ch.MessageType == csp.MessageStatus {
		st, err := wire.ReadPrimitive[int32](rb, ch.CommonFlags.BigEndian())
		if err != nil {
			return csp.StatusErrorInternal, err
		}
		return csp.Status(st), csp.Status(st)
	}
	if ch.MessageType != csp.MessageData {
		return csp.StatusErrorInternal, fmt.Errorf("csp: unexpected reply message type %v", ch.MessageType)
	}
	dh, err := header.ReadData(rb, ch.CommonFlags.BigEndian())
	if err != nil {
		return csp.StatusErrorInternal, err
	}
	if dh.DataFlags != effFlags {
		c.Logger.Warn(fmt.Sprintf("client: reply data flags %v do not match negotiated flags %v", dh.DataFlags, effFlags))
		return csp.StatusErrorNotCompatibleDataFlagsSettings, csp.ErrNotCompatibleDataFlagsSettings
	}
	outIser, ok := output.(body.ISerializable)
	if ok && !dh.TypeID.Equal(outIser.TypeID()) {
		c.Logger.Warn(fmt.Sprintf("client: reply type id %s does not match expected %s", dh.TypeID, outIser.TypeID()))
		return csp.StatusErrorMismatchOfTypeId, csp.ErrMismatchOfTypeId
	}

	common = session.NewCommon(rb, session.Deserialize, ch.ProtocolVersion, csp.MessageData, ch.CommonFlags)
	ctxData = session.NewData(common, dh.DataFlags, dh.InterfaceVersion, dh.DataFlags.Has(csp.FlagCheckRecursivePointers))
	if err := body.Deserialize(ctxData, output); err != nil {
		return csp.StatusFromError(err), err
	}
	return csp.StatusNoError, nil
}
