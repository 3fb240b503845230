// Package feed carries record-change notifications to the per-kind stores.
// Two conformant strategies exist: a push feed over redis pub/sub, and a
// polling ticker for deployments without a change channel. Both present the
// same interface, so stores do not know which one drives them.
package feed

import (
	"context"
	"sync"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// Feed delivers reconciliation signals per record kind.
type Feed interface {
	// Subscribe registers fn to run on every change signal for the kind.
	// The returned cancel fully releases the subscription's resources.
	Subscribe(kind domain.RecordKind, fn func()) (cancel func())
	// Publish signals that the kind's collection changed.
	Publish(ctx context.Context, kind domain.RecordKind)
	// Close releases all subscriptions and background resources.
	Close()
}

// dispatcher is the shared synchronous fan-out used by the feed
// implementations.
type dispatcher struct {
	mu        sync.Mutex
	listeners map[domain.RecordKind]map[int]func()
	nextID    int
	closed    bool
}

func newDispatcher() *dispatcher {
	return &dispatcher{listeners: make(map[domain.RecordKind]map[int]func())}
}

func (d *dispatcher) add(kind domain.RecordKind, fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return func() {}
	}
	if d.listeners[kind] == nil {
		d.listeners[kind] = make(map[int]func())
	}
	id := d.nextID
	d.nextID++
	d.listeners[kind][id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners[kind], id)
	}
}

func (d *dispatcher) dispatch(kind domain.RecordKind) {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.listeners[kind]))
	for _, fn := range d.listeners[kind] {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.listeners = make(map[domain.RecordKind]map[int]func())
}

// memoryFeed dispatches synchronously in-process. It backs tests and
// single-process deployments.
type memoryFeed struct {
	*dispatcher
}

// NewMemory builds an in-process feed.
func NewMemory() Feed {
	return &memoryFeed{dispatcher: newDispatcher()}
}

func (f *memoryFeed) Subscribe(kind domain.RecordKind, fn func()) func() {
	return f.add(kind, fn)
}

func (f *memoryFeed) Publish(_ context.Context, kind domain.RecordKind) {
	f.dispatch(kind)
}

func (f *memoryFeed) Close() {
	f.close()
}
