// Package session implements the CSP context state machine (spec §4.2): a
// single-use, non-thread-safe session object carrying the frozen
// protocol/common-flags triple, the per-operation data flags and
// interface version, and the optional pointer map / temp arena.
//
// Grounded on ingest/ingestConnection.go's IngestConnection, which holds
// exactly this shape of session state (a connection, its negotiated tags,
// a running flag) behind a mutex; CSP generalizes "one connection to one
// indexer" into "one serialize-or-deserialize pass over one buffer".
package session

import (
	"github.com/cspproto/csp"
	"github.com/cspproto/csp/wire"
)

// Direction records whether a Context is being used to serialize or
// deserialize; a Context is single-use in one direction only (spec §4.2
// invariant).
type Direction int

const (
	Serialize Direction = iota
	Deserialize
)

// Common carries the fields shared by every CSP session: the buffer, the
// frozen protocol version, the message type the common header declares,
// and the frozen common flags.
type Common struct {
	Buf             *wire.Buffer
	Direction       Direction
	ProtocolVersion csp.ProtocolVersion
	MessageType     csp.MessageType
	CommonFlags     csp.CommonFlags
	frozen          bool
}

// NewCommon constructs a Common context around buf. The common flags are
// frozen immediately, matching the spec's invariant that once a context
// begins serializing/deserializing a body its protocol version, common
// flags, and interface version are fixed.
func NewCommon(buf *wire.Buffer, dir Direction, pv csp.ProtocolVersion, mt csp.MessageType, flags csp.CommonFlags) *Common {
	return &Common{
		Buf:             buf,
		Direction:       dir,
		ProtocolVersion: pv,
		MessageType:     mt,
		CommonFlags:     flags,
		frozen:          true,
	}
}

// BigEndian reports whether the session's wire bytes (after the common
// header) are big-endian.
func (c *Common) BigEndian() bool { return c.CommonFlags.BigEndian() }

// EndiannessMismatched reports whether the session's declared byte order
// differs from the host's, derived once and frozen for the context's
// lifetime (spec §4.1 endianness policy; §9 open question resolution:
// frozen at serialize time, symmetric at deserialize, per SPEC_FULL.md).
func (c *Common) EndiannessMismatched() bool {
	return c.BigEndian() != wire.NativeBigEndian()
}

// ResetToDefaultsExceptContents rewinds the buffer's read/write cursor
// but preserves its contents (spec §4.2). No other field of the context
// is changed.
func (c *Common) ResetToDefaultsExceptContents() {
	c.Buf.RewindCursor()
}

// Clear rewinds the cursor and discards the buffer's contents entirely.
func (c *Common) Clear() {
	c.Buf.Reset()
}

// Data adds the per-operation state to a Common context: data flags, the
// interface version in play, whether that version differs from the
// type's latest, whether version-bridge intermediates are heap- or
// stack-allocated, and the optional pointer map / temp arena.
type Data struct {
	*Common

	DataFlags               csp.DataFlags
	InterfaceVersion        csp.InterfaceVersion
	InterfaceVersionNotMatch bool
	AuxUsesHeapAllocation    bool

	Pointers *PointerMap // nil unless FlagCheckRecursivePointers is set
	Temp     *TempArena  // deserialize side only; nil on serialize side
}

// NewData constructs a Data context. pointerMapEnabled mirrors
// DataFlags.Has(csp.FlagCheckRecursivePointers): callers pass it
// explicitly so a context can be built once the effective flags for an
// operation are known.
func NewData(common *Common, flags csp.DataFlags, iface csp.InterfaceVersion, pointerMapEnabled bool) *Data {
	d := &Data{
		Common:           common,
		DataFlags:        flags,
		InterfaceVersion: iface,
	}
	if pointerMapEnabled {
		d.Pointers = NewPointerMap()
	}
	if common.Direction == Deserialize {
		d.Temp = NewTempArena()
	}
	return d
}

// AllowsUnmanagedPointers reports whether pointer fields may serialize at
// all for this operation.
func (d *Data) AllowsUnmanagedPointers() bool {
	return d.DataFlags.Has(csp.FlagAllowUnmanagedPointers)
}

// ChecksRecursivePointers reports whether pointer-map deduplication is
// active.
func (d *Data) ChecksRecursivePointers() bool {
	return d.DataFlags.Has(csp.FlagCheckRecursivePointers) && d.Pointers != nil
}

// FastPathDisabled reports whether the simply-assignable fast path is
// globally turned off for this operation.
func (d *Data) FastPathDisabled() bool {
	return d.DataFlags.Has(csp.FlagSimplyAssignableTagsOptimizationsAreTurnedOff)
}

// Bitness32 reports whether size prefixes use 4 bytes instead of 8.
func (d *Data) Bitness32() bool { return d.CommonFlags.Bitness32() }

// Teardown releases the context's deserialize-side temp arena by running
// destructors on every tracked object; callers that want to keep the
// deserialized objects alive should call d.Temp.Release() instead before
// discarding the context.
func (d *Data) Teardown() error {
	if d.Temp == nil {
		return nil
	}
	return d.Temp.Close()
}
