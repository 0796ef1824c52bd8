// Package registrar implements the server dispatch registrar (spec
// §4.7): a concurrent hash-multimap from a type Id to one or more
// handler Handles, with refcounted acquire/release and a
// drain-then-remove unregister path.
//
// Grounded on gravwell's ingest/muxer.go, which already combines a
// shared mutex-guarded map of active connections with atomic rate
// counters and a RegisterChild/UnregisterChild lifecycle; this
// generalizes that connection registry into a type-id-keyed handler
// registry and replaces muxer.go's ad hoc shutdown polling with a real
// countdown latch built on golang.org/x/sync/semaphore, per spec §5's
// requirement that unregister block until in-flight handlers drain.
package registrar

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/cspproto/csp"
	"github.com/cspproto/csp/log"
)

// Handler is the contract a registered service implements (spec §4.7
// "handle_data method").
type Handler interface {
	HandleData(ctx context.Context, in []byte) (out []byte, err error)
}

// Handle is one registered (service, handler) pair under some Id.
type Handle struct {
	ServiceOwner any
	Handler      Handler

	inUse        atomic.Uint32
	notAvailable atomic.Bool
	pending      atomic.Pointer[pendingUnregister]
}

type pendingUnregister struct {
	serviceOwner any
	remaining    atomic.Int64
	sem          *semaphore.Weighted
}

// Registrar is the concurrent handler registry. The zero value is not
// usable; construct with New.
type Registrar struct {
	mu      sync.RWMutex
	handles map[csp.Id][]*Handle
	pending []*pendingUnregister
	Logger  log.Logger
	Metrics *Metrics
}

// New returns an empty Registrar logging to log.DiscardLogger; set
// r.Logger afterward to observe lifecycle events.
func New() *Registrar {
	return &Registrar{handles: make(map[csp.Id][]*Handle), Logger: log.DiscardLogger}
}

// Register inserts a new handle under id (spec §4.7 "register"). If
// multicast is false and a handle already exists for id, this is the
// spec's documented "programming error" and returns ErrAlreadyInited.
func (r *Registrar) Register(id csp.Id, multicast bool, serviceOwner any, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !multicast && len(r.handles[id]) > 0 {
		r.Logger.Warn(fmt.Sprintf("registrar: duplicate non-multicast registration for %s", id))
		return csp.ErrAlreadyInited
	}
	r.handles[id] = append(r.handles[id], &Handle{ServiceOwner: serviceOwner, Handler: handler})
	r.Metrics.handlerDelta(1)
	return nil
}

// Unregister marks every handle owned by serviceOwner (across every Id)
// as not-available, then blocks until every in-flight acquire on those
// handles has been released (spec §4.7 "unregister").
func (r *Registrar) Unregister(ctx context.Context, serviceOwner any) error {
	r.mu.Lock()
	var affected []*Handle
	for _, hs := range r.handles {
		for _, h := range hs {
			if h.ServiceOwner == serviceOwner {
				h.notAvailable.Store(true)
				affected = append(affected, h)
			}
		}
	}
	var sum uint32
	for _, h := range affected {
		sum += h.inUse.Load()
	}
	if sum == 0 {
		r.removeService(serviceOwner)
		r.mu.Unlock()
		return nil
	}

	sem := semaphore.NewWeighted(1)
	_ = sem.Acquire(context.Background(), 1)
	pu := &pendingUnregister{serviceOwner: serviceOwner, sem: sem}
	pu.remaining.Store(int64(sum))
	for _, h := range affected {
		h.pending.Store(pu)
	}
	r.pending = append(r.pending, pu)
	r.mu.Unlock()

	r.Logger.Info(fmt.Sprintf("registrar: unregister draining %d in-flight handler(s)", sum))
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	sem.Release(1)

	r.mu.Lock()
	r.removeService(serviceOwner)
	r.removePending(pu)
	r.mu.Unlock()
	return nil
}

func (r *Registrar) removeService(serviceOwner any) {
	var removed int
	for id, hs := range r.handles {
		kept := hs[:0]
		for _, h := range hs {
			if h.ServiceOwner == serviceOwner {
				removed++
			} else {
				kept = append(kept, h)
			}
		}
		if len(kept) == 0 {
			delete(r.handles, id)
		} else {
			r.handles[id] = kept
		}
	}
	r.Metrics.handlerDelta(-float64(removed))
}

func (r *Registrar) removePending(pu *pendingUnregister) {
	kept := r.pending[:0]
	for _, p := range r.pending {
		if p != pu {
			kept = append(kept, p)
		}
	}
	r.pending = kept
}

// Acquire collects every available handle for id, incrementing each
// one's in-use counter (spec §4.7 "Acquire-handlers"). A handle marked
// not-available is skipped; that is only a failure if no available
// handle remains.
func (r *Registrar) Acquire(id csp.Id) ([]*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hs, ok := r.handles[id]
	if !ok || len(hs) == 0 {
		r.Metrics.recordDispatch("no_such_handler")
		return nil, csp.ErrNoSuchHandler
	}
	var out []*Handle
	for _, h := range hs {
		if h.notAvailable.Load() {
			continue
		}
		h.inUse.Add(1)
		out = append(out, h)
	}
	if len(out) == 0 {
		r.Metrics.recordDispatch("not_available")
		return nil, csp.ErrNotAvailable
	}
	r.Metrics.recordDispatch("ok")
	r.Metrics.inFlightDelta(float64(len(out)))
	return out, nil
}

// AcquireSingle is Acquire with the extra invariant that exactly one
// handle matches id (spec §4.7 "Acquire-single").
func (r *Registrar) AcquireSingle(id csp.Id) (*Handle, error) {
	hs, err := r.Acquire(id)
	if err != nil {
		return nil, err
	}
	if len(hs) > 1 {
		for _, h := range hs {
			r.Release(h)
		}
		return nil, csp.ErrMoreEntries
	}
	return hs[0], nil
}

// Release decrements h's in-use counter. If h's service is mid-unregister
// and the countdown reaches zero, the waiting Unregister call is woken
// (spec §4.7 "Release").
func (r *Registrar) Release(h *Handle) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h.inUse.Add(^uint32(0)) // -1
	r.Metrics.inFlightDelta(-1)
	pu := h.pending.Load()
	if pu == nil {
		return
	}
	if pu.remaining.Add(-1) == 0 {
		pu.sem.Release(1)
	}
}
