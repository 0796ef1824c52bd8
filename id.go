// Package csp implements the Common Serialization Protocol: a versioned,
// endianness-aware binary wire format plus an RPC messaging envelope.
package csp

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Id is a 128-bit type identifier, wire-encoded as two uint64 halves
// (low half first) in the session's byte order. It identifies an interface or an
// ISerializable type the same way an ingester UUID identifies an ingest
// source: a stable, transport-independent handle.
type Id struct {
	Low  uint64
	High uint64
}

// IdFromUUID builds an Id from a github.com/google/uuid.UUID, matching the
// byte order google/uuid uses internally (big-endian fields packed into
// the 16-byte array) by reinterpreting the array as two big-endian halves.
func IdFromUUID(u uuid.UUID) Id {
	return Id{
		High: binary.BigEndian.Uint64(u[0:8]),
		Low:  binary.BigEndian.Uint64(u[8:16]),
	}
}

// UUID renders the Id back as a github.com/google/uuid.UUID.
func (id Id) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[0:8], id.High)
	binary.BigEndian.PutUint64(u[8:16], id.Low)
	return u
}

// NewId mints a random Id (random-version UUID underneath).
func NewId() Id {
	return IdFromUUID(uuid.New())
}

// IsZero reports whether the Id is the zero value.
func (id Id) IsZero() bool {
	return id.Low == 0 && id.High == 0
}

func (id Id) String() string {
	return id.UUID().String()
}

// Equal reports whether two Ids identify the same type/interface.
func (id Id) Equal(o Id) bool {
	return id.Low == o.Low && id.High == o.High
}

func (id Id) GoString() string {
	return fmt.Sprintf("csp.Id{Low: 0x%016x, High: 0x%016x}", id.Low, id.High)
}
