// Package body implements the data body processor (spec §4.3): the
// generic serialize/deserialize engine that walks an arbitrary Go value
// and emits or consumes its wire representation according to the
// fast-path eligibility matrix and the per-kind dispatch rules.
//
// The spec's C++ engine dispatches on compile-time type traits produced
// by a code generator (AlwaysSimplyAssignable, SimplyAssignableFixedSize,
// ...). Go has no code generator in this corpus and no compile-time
// trait system, so this package plays the same role encoding/gob plays
// relative to encoding/json in the standard library: a registry keyed by
// reflect.Type that callers populate once (typically in an init func next
// to the type definition), generalizing gravwell's hand-written
// per-struct Encode/Decode pairs (ingest/entry/entry.go,
// ingest/entry/enumerated.go) into a single reusable engine.
package body

import (
	"reflect"
	"sync"

	"github.com/cspproto/csp"
)

// Traits mirrors the spec's static type-classification bits (§3 "Type
// classification"). The zero value (no bits set) means "no fast path
// available, use the generic struct path."
type Traits struct {
	AlwaysSimplyAssignable       bool
	SimplyAssignableFixedSize    bool
	SimplyAssignableAlignedToOne bool
	SimplyAssignable             bool
	EndiannessTolerant           bool
}

// ISerializable is the contract a top-level user type satisfies (spec
// §4.6): stable identity, current and historical interface versions, and
// the interface descriptor it belongs to. Types that also want the
// fast-path treatment additionally register Traits via RegisterTraits.
type ISerializable interface {
	TypeID() csp.Id
	LatestInterfaceVersion() csp.InterfaceVersion
	// PrivateVersions returns the type's private version history, most
	// recent first; the last element is the origin private version.
	PrivateVersions() []csp.InterfaceVersion
}

// FieldWalker is the "otherwise" path of the dispatch rule (spec §4.3
// case 5): a type with a user-provided body that knows how to serialize
// and deserialize its own fields by calling back into this package. Code
// that cannot be expressed as a simply-assignable aggregate implements
// this instead of relying on reflection over exported fields.
type FieldWalker interface {
	WalkFields(fn func(field any) error) error
}

var registry = struct {
	mu sync.RWMutex
	m  map[reflect.Type]Traits
}{m: make(map[reflect.Type]Traits)}

// RegisterTraits records the static classification for T, identified by
// a zero value of that type. Call this once, typically from an init
// function beside the type definition; the zero-field case (no
// registration) falls back to the generic struct path.
func RegisterTraits(sample any, t Traits) {
	rt := reflect.TypeOf(sample)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	registry.mu.Lock()
	registry.m[rt] = t
	registry.mu.Unlock()
}

func traitsFor(rt reflect.Type) (Traits, bool) {
	registry.mu.RLock()
	t, ok := registry.m[rt]
	registry.mu.RUnlock()
	return t, ok
}

// fastPathEligible implements the eligibility matrix of spec §4.3: "fast
// path is selected when ALL hold". endiannessOK and the three flag
// booleans are supplied by the caller since they depend on session state,
// not just T's static traits.
func fastPathEligible(rt reflect.Type, endiannessOK bool, alignmentMayBeNotEqual, sizeOfIntegersMayBeNotEqual, fastPathDisabled bool) bool {
	if fastPathDisabled {
		return false
	}
	if !endiannessOK {
		return false
	}
	switch rt.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8, reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Uint64,
		reflect.Int, reflect.Uint, reflect.Float32, reflect.Float64:
		return true
	}
	traits, ok := traitsFor(rt)
	if !ok {
		return false
	}
	if traits.AlwaysSimplyAssignable {
		return true
	}
	if traits.SimplyAssignableFixedSize && !alignmentMayBeNotEqual {
		return true
	}
	if traits.SimplyAssignableAlignedToOne && !sizeOfIntegersMayBeNotEqual {
		return true
	}
	if traits.SimplyAssignable && !alignmentMayBeNotEqual && !sizeOfIntegersMayBeNotEqual {
		return true
	}
	return false
}
