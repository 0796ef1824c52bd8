// Package versionbridge implements the recursive version-converter chain
// (spec §4.5): given a wire payload written at an older private version
// of a type, reconstruct that older shape and walk it forward through
// successive upcasts to the type's current shape, or, on the serialize
// side, walk a current value backward to the wire-requested version.
//
// The spec's C++ chain is a compile-time parameter pack
// [T_current, T_prev, ..., T_origin] pattern-matched by a code generator.
// Go has neither variadic template packs nor a code generator in this
// corpus, so the chain is represented as an ordered slice of Node
// entries built by hand (or by a small generator a user type's package
// would supply), the same shape gravwell's muxer.go builds its ordered
// connection-handling pipelines from explicit, hand-assembled slices
// rather than compile-time lists.
package versionbridge

import (
	"github.com/cspproto/csp"
	"github.com/cspproto/csp/session"
)

// Node describes one historical private version in a chain. Chains are
// ordered current-first, origin-last (descending Version), matching the
// spec's parameter pack order.
type Node struct {
	// Version is this node's own latest-private-version number.
	Version csp.InterfaceVersion

	// New returns a freshly zeroed instance of this node's shape.
	New func() any

	// Body serializes or deserializes this node's own representation via
	// the body processor's legacy (field-by-field) path. dir selects
	// direction; v is always this node's own shape (from New()).
	Body func(v any, ctx *session.Data, dir session.Direction) error

	// Downcast builds the next-older node's shape from this node's
	// value, for the serialize-side walk toward an older target
	// version. Nil on the origin node (nothing older to build).
	Downcast func(newer any) (older any, err error)

	// Upcast populates newer (already constructed via New on the
	// next-newer node) from older (this node's deserialized value), for
	// the deserialize-side walk back up to the current shape. Nil on the
	// current (first) node (nothing to upcast into).
	Upcast func(older, newer any) error
}

// Chain is a complete [T_current, T_prev, ..., T_origin] conversion
// chain for one ISerializable type.
type Chain []Node

// Serialize walks the chain from current toward target (spec §4.5
// "Serialize direction"): at each node whose Version exceeds target, the
// value is downcast one step older and the walk continues; at the first
// node whose Version is at or below target, that node's own
// representation is emitted via the body processor.
func Serialize(chain Chain, current any, target csp.InterfaceVersion, ctx *session.Data) error {
	v := current
	for i := 0; i < len(chain); i++ {
		node := chain[i]
		if node.Version > target {
			if i+1 >= len(chain) || node.Downcast == nil {
				return csp.ErrNoSuchHandler
			}
			older, err := node.Downcast(v)
			if err != nil {
				return err
			}
			v = older
			continue
		}
		return node.Body(v, ctx, session.Serialize)
	}
	return csp.ErrInternal
}

// Deserialize walks the chain to find the node matching wireVersion,
// deserializes that node's own representation, then walks back up
// through successive Upcast calls to the chain's current (index 0)
// shape (spec §4.5 "Deserialize direction"). The heap-vs-stack choice
// aux_uses_heap_allocation governs in the source has no Go analogue —
// every intermediate here is a heap-escaping interface value regardless,
// which satisfies the spec's invariant that the result is the same
// either way.
func Deserialize(chain Chain, ctx *session.Data, wireVersion csp.InterfaceVersion) (any, error) {
	idx := -1
	for i, node := range chain {
		if node.Version == wireVersion {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, csp.ErrInternal
	}

	v := chain[idx].New()
	if err := chain[idx].Body(v, ctx, session.Deserialize); err != nil {
		return nil, err
	}
	for j := idx - 1; j >= 0; j-- {
		if chain[j+1].Upcast == nil {
			return nil, csp.ErrNoSuchHandler
		}
		newer := chain[j].New()
		if err := chain[j+1].Upcast(v, newer); err != nil {
			return nil, err
		}
		v = newer
	}
	return v, nil
}
