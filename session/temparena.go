package session

import "io"

// TempArena is the context-owned container of type-erased owning boxes
// the spec describes: every heap object a deserialize pass allocates for
// an unmanaged pointer is registered here, so the context's owner can
// either take ownership (Release, leaving the objects alive and
// referenced by the deserialized value tree) or tear them all down
// (Close) at context teardown (spec §3 "Temp arena").
type TempArena struct {
	items []any
}

// NewTempArena returns an empty arena.
func NewTempArena() *TempArena { return &TempArena{} }

// Track registers v (typically a freshly allocated pointer) for deferred
// destruction.
func (a *TempArena) Track(v any) {
	a.items = append(a.items, v)
}

// Len reports how many objects are currently tracked.
func (a *TempArena) Len() int { return len(a.items) }

// Release empties the arena without running destructors: the caller is
// taking ownership of every tracked object (they remain reachable
// through the deserialized value tree).
func (a *TempArena) Release() {
	a.items = nil
}

// Close runs io.Closer.Close on every tracked object that implements it,
// then empties the arena, returning the first error encountered (if any)
// after attempting to close every item.
func (a *TempArena) Close() error {
	var first error
	for _, v := range a.items {
		if c, ok := v.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	a.items = nil
	return first
}
