package registrar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cspproto/csp"
)

type stubHandler struct{}

func (stubHandler) HandleData(ctx context.Context, in []byte) ([]byte, error) { return in, nil }

func TestDoubleNonMulticastRegistrationRejected(t *testing.T) {
	r := New()
	id := csp.NewId()
	require.NoError(t, r.Register(id, false, "svc1", stubHandler{}))
	err := r.Register(id, false, "svc2", stubHandler{})
	require.ErrorIs(t, err, csp.ErrAlreadyInited)
}

func TestAcquireNoSuchHandler(t *testing.T) {
	r := New()
	_, err := r.Acquire(csp.NewId())
	require.ErrorIs(t, err, csp.ErrNoSuchHandler)
}

func TestUnregisterBlocksUntilRelease(t *testing.T) {
	r := New()
	id := csp.NewId()
	require.NoError(t, r.Register(id, false, "svc", stubHandler{}))

	h, err := r.AcquireSingle(id)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Unregister(context.Background(), "svc") }()

	select {
	case <-done:
		t.Fatal("unregister returned before the in-flight handler released")
	case <-time.After(30 * time.Millisecond):
	}

	r.Release(h)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("unregister did not unblock after release")
	}

	_, err = r.Acquire(id)
	require.ErrorIs(t, err, csp.ErrNoSuchHandler)
}
