package csp

// CommonFlags is the 32-bit session-wide bitfield carried once per
// message (§3). The server accepts a Data message only if its common
// flags include every one of the server's mandatory common flags.
// Bits are packed the same way entry.DecodeHeader packs its IPv4/EVs
// flags into the high bits of a uint32: cheap to compare, cheap to wire.
type CommonFlags uint32

const (
	// FlagBigEndianFormat marks the byte stream (after the common header)
	// as big-endian. Absent, the stream is little-endian.
	FlagBigEndianFormat CommonFlags = 1 << 0
	// FlagBitness32 selects 4-byte size-prefixes instead of 8-byte ones.
	FlagBitness32 CommonFlags = 1 << 1
	// FlagEndiannessDifference marks that the encoder's native byte order
	// differs from FlagBigEndianFormat. Nothing in this module sets it
	// automatically; session.Common.EndiannessMismatched derives the
	// mismatch from FlagBigEndianFormat and the host byte order instead.
	FlagEndiannessDifference CommonFlags = 1 << 2
	// reservedForbiddenMask is a bit no party should set. No negotiation
	// step in this module checks it.
	reservedForbiddenMask CommonFlags = 1 << 31
)

func (f CommonFlags) BigEndian() bool            { return f&FlagBigEndianFormat != 0 }
func (f CommonFlags) Bitness32() bool            { return f&FlagBitness32 != 0 }
func (f CommonFlags) EndiannessDifference() bool { return f&FlagEndiannessDifference != 0 }

// ReservedForbidden reports whether a reserved-forbidden bit is set.
func (f CommonFlags) ReservedForbidden() bool { return f&reservedForbiddenMask != 0 }

// Has reports whether every bit in want is set in f.
func (f CommonFlags) Has(want CommonFlags) bool { return f&want == want }

// DataFlags is the per-interface/per-operation 32-bit bitfield controlling
// body-processor encoding policy (§3, §4.3).
type DataFlags uint32

const (
	// FlagAlignmentMayBeNotEqual disables the fast path for
	// SimplyAssignableFixedSize types (their layout may differ across
	// parties due to alignment).
	FlagAlignmentMayBeNotEqual DataFlags = 1 << 0
	// FlagSizeOfIntegersMayBeNotEqual enables the per-scalar/per-array
	// width marker and width-promotion machinery (§4.1, §6).
	FlagSizeOfIntegersMayBeNotEqual DataFlags = 1 << 1
	// FlagAllowUnmanagedPointers permits pointer fields to serialize at
	// all; without it, a pointer field is a hard error.
	FlagAllowUnmanagedPointers DataFlags = 1 << 2
	// FlagCheckRecursivePointers turns on pointer-map deduplication.
	FlagCheckRecursivePointers DataFlags = 1 << 3
	// FlagSimplyAssignableTagsOptimizationsAreTurnedOff disables the
	// entire fast-path matrix regardless of type classification.
	FlagSimplyAssignableTagsOptimizationsAreTurnedOff DataFlags = 1 << 4
)

func (f DataFlags) Has(want DataFlags) bool { return f&want == want }

// Union returns the bitwise union of a and b, used to compute an
// operation's effective flags from an interface's mandatory flags plus
// any caller-supplied additional flags (§3).
func (f DataFlags) Union(o DataFlags) DataFlags { return f | o }

// ViolatesForbidden reports whether f sets any bit also set in forbidden.
func (f DataFlags) ViolatesForbidden(forbidden DataFlags) bool { return f&forbidden != 0 }
