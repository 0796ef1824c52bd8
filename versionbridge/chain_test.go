package versionbridge

import (
	"testing"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/body"
	"github.com/cspproto/csp/session"
	"github.com/cspproto/csp/wire"
)

// widgetV1 is the origin shape: just a name.
type widgetV1 struct {
	Name [8]byte
}

// widgetV2 is the current shape: name plus a count added in a later
// version.
type widgetV2 struct {
	Name  [8]byte
	Count uint32
}

func init() {
	body.RegisterTraits(widgetV1{}, body.Traits{AlwaysSimplyAssignable: true})
	body.RegisterTraits(widgetV2{}, body.Traits{AlwaysSimplyAssignable: true})
}

func setName(dst *[8]byte, s string) {
	copy(dst[:], s)
}

func testChain() Chain {
	return Chain{
		{
			Version: 2,
			New:     func() any { return &widgetV2{} },
			Body: func(v any, ctx *session.Data, dir session.Direction) error {
				if dir == session.Serialize {
					return body.Serialize(*v.(*widgetV2), ctx)
				}
				return body.Deserialize(ctx, v.(*widgetV2))
			},
			Downcast: func(newer any) (any, error) {
				n := newer.(*widgetV2)
				return &widgetV1{Name: n.Name}, nil
			},
		},
		{
			Version: 1,
			New:     func() any { return &widgetV1{} },
			Body: func(v any, ctx *session.Data, dir session.Direction) error {
				if dir == session.Serialize {
					return body.Serialize(*v.(*widgetV1), ctx)
				}
				return body.Deserialize(ctx, v.(*widgetV1))
			},
			Upcast: func(older, newer any) error {
				o := older.(*widgetV1)
				n := newer.(*widgetV2)
				n.Name = o.Name
				n.Count = 0
				return nil
			},
		},
	}
}

func newSessionData(buf *wire.Buffer, dir session.Direction) *session.Data {
	common := session.NewCommon(buf, dir, 1, csp.MessageData, 0)
	return session.NewData(common, 0, 1, false)
}

func TestSerializeAtOriginVersionDowncasts(t *testing.T) {
	chain := testChain()
	current := &widgetV2{Count: 7}
	setName(&current.Name, "widget")

	buf := wire.NewEmptyBuffer()
	ctx := newSessionData(buf, session.Serialize)
	if err := Serialize(chain, current, 1, ctx); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	// widgetV1 has no Count field, so the wire form must be shorter than
	// a full widgetV2 (8 bytes name vs 8+4).
	if buf.Len() != 8 {
		t.Fatalf("expected 8-byte origin-shape encoding, got %d", buf.Len())
	}
}

func TestSerializeAtCurrentVersionNoDowncast(t *testing.T) {
	chain := testChain()
	current := &widgetV2{Count: 7}
	setName(&current.Name, "widget")

	buf := wire.NewEmptyBuffer()
	ctx := newSessionData(buf, session.Serialize)
	if err := Serialize(chain, current, 2, ctx); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != 12 {
		t.Fatalf("expected 12-byte current-shape encoding, got %d", buf.Len())
	}
}

func TestDeserializeFromOriginVersionUpcasts(t *testing.T) {
	chain := testChain()
	origin := &widgetV1{}
	setName(&origin.Name, "widget")

	buf := wire.NewEmptyBuffer()
	sctx := newSessionData(buf, session.Serialize)
	if err := body.Serialize(*origin, sctx); err != nil {
		t.Fatalf("seed serialize: %v", err)
	}

	rbuf := wire.NewBuffer(buf.Bytes())
	dctx := newSessionData(rbuf, session.Deserialize)
	got, err := Deserialize(chain, dctx, 1)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	w2, ok := got.(*widgetV2)
	if !ok {
		t.Fatalf("expected *widgetV2, got %T", got)
	}
	if w2.Count != 0 {
		t.Fatalf("expected zero-valued Count from upcast, got %d", w2.Count)
	}
	if string(w2.Name[:6]) != "widget" {
		t.Fatalf("unexpected name %q", w2.Name)
	}
}

func TestDeserializeUnknownVersion(t *testing.T) {
	chain := testChain()
	buf := wire.NewEmptyBuffer()
	ctx := newSessionData(buf, session.Deserialize)
	if _, err := Deserialize(chain, ctx, 99); err != csp.ErrInternal {
		t.Fatalf("expected ErrInternal for unknown version, got %v", err)
	}
}
