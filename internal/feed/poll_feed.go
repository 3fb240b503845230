package feed

import (
	"context"
	"sync"
	"time"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
)

// pollFeed fires change signals on a fixed interval for backends without a
// change channel. Local mutations still dispatch immediately through the
// in-process fan-out, so the interval only bounds how stale remote changes
// can get.
type pollFeed struct {
	interval time.Duration
	local    *dispatcher

	mu      sync.Mutex
	tickers map[domain.RecordKind]*kindTicker
	closed  bool
}

type kindTicker struct {
	stop chan struct{}
	done chan struct{}
	refs int
}

// NewPoll builds a poll-based feed. interval <= 0 defaults to 5s.
func NewPoll(interval time.Duration) Feed {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &pollFeed{
		interval: interval,
		local:    newDispatcher(),
		tickers:  make(map[domain.RecordKind]*kindTicker),
	}
}

func (f *pollFeed) Subscribe(kind domain.RecordKind, fn func()) func() {
	cancelLocal := f.local.add(kind, fn)
	f.retainTicker(kind)

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelLocal()
			f.releaseTicker(kind)
		})
	}
}

func (f *pollFeed) Publish(_ context.Context, kind domain.RecordKind) {
	f.local.dispatch(kind)
}

func (f *pollFeed) Close() {
	f.mu.Lock()
	f.closed = true
	tickers := f.tickers
	f.tickers = make(map[domain.RecordKind]*kindTicker)
	f.mu.Unlock()

	for _, t := range tickers {
		close(t.stop)
		<-t.done
	}
	f.local.close()
}

func (f *pollFeed) retainTicker(kind domain.RecordKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	if t, ok := f.tickers[kind]; ok {
		t.refs++
		return
	}

	t := &kindTicker{stop: make(chan struct{}), done: make(chan struct{}), refs: 1}
	f.tickers[kind] = t

	go func() {
		defer close(t.done)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.local.dispatch(kind)
			case <-t.stop:
				return
			}
		}
	}()
}

func (f *pollFeed) releaseTicker(kind domain.RecordKind) {
	f.mu.Lock()
	t, ok := f.tickers[kind]
	if ok {
		t.refs--
		if t.refs > 0 {
			f.mu.Unlock()
			return
		}
		delete(f.tickers, kind)
	}
	f.mu.Unlock()

	if ok {
		close(t.stop)
		<-t.done
	}
}
