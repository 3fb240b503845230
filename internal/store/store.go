// Package store maintains the portal's continuously-fresh view of one
// tracked-record collection: a local cache populated from a Source, mutated
// optimistically on user action and reconciled through a change feed.
package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rohit5932/consult-smart-portal/internal/domain"
	"github.com/Rohit5932/consult-smart-portal/internal/feed"
	"github.com/Rohit5932/consult-smart-portal/internal/observability"
	apperrors "github.com/Rohit5932/consult-smart-portal/pkg/util"
)

// Store owns the local cache for one record kind. Components reading the
// same kind must share one instance; the cache is the single client-side
// truth for that collection between reconciliations.
type Store struct {
	kind    domain.RecordKind
	source  Source
	changes feed.Feed
	logger  *zap.Logger
	metrics *observability.Metrics
	timeout time.Duration

	mu       sync.Mutex
	cache    []domain.TrackedRecord
	loaded   bool
	stale    bool
	inFlight bool

	subMu      sync.Mutex
	subs       map[int]func()
	nextSub    int
	feedCancel func()
}

// Options bundles store construction parameters.
type Options struct {
	Kind    domain.RecordKind
	Source  Source
	Feed    feed.Feed
	Logger  *zap.Logger
	Metrics *observability.Metrics
	// Timeout bounds every Source call. Zero means 15s.
	Timeout time.Duration
}

// New builds a store for one record kind.
func New(opts Options) *Store {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		kind:    opts.Kind,
		source:  opts.Source,
		changes: opts.Feed,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		timeout: timeout,
		subs:    make(map[int]func()),
	}
}

// Kind returns the record kind this store owns.
func (s *Store) Kind() domain.RecordKind {
	return s.kind
}

// Load fetches the full collection and replaces the cache. On failure the
// previous cache is retained and flagged stale; it is never emptied by a
// failed fetch.
func (s *Store) Load(ctx context.Context) ([]domain.TrackedRecord, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.source.List(cctx, s.kind)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.loaded {
			s.stale = true
		}
		s.metrics.RecordReconcile(string(s.kind), false)
		return s.copyCacheLocked(), apperrors.FromRemote("record fetch", err)
	}

	s.cache = records
	s.loaded = true
	s.stale = false
	s.metrics.RecordReconcile(string(s.kind), true)
	return s.copyCacheLocked(), nil
}

// Records returns the current cache contents.
func (s *Store) Records() []domain.TrackedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyCacheLocked()
}

// Stale reports whether the cache outlived its last successful refresh.
func (s *Store) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Create persists a new record and seeds it into the cache so the caller
// sees it before the next reconciliation.
func (s *Store) Create(ctx context.Context, record *domain.TrackedRecord) error {
	record.Kind = s.kind
	if record.Status == "" {
		record.Status = s.kind.InitialStatus()
	}
	if err := record.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.source.Insert(cctx, record); err != nil {
		return apperrors.FromRemote("record create", err)
	}

	s.mu.Lock()
	if s.loaded {
		s.cache = append([]domain.TrackedRecord{*record}, s.cache...)
	}
	s.mu.Unlock()

	s.changes.Publish(ctx, s.kind)
	return nil
}

// UpdateStatus issues a targeted update for exactly one record. The status
// lattice is enforced here: an illegal transition fails validation before
// any backend call and leaves the record unchanged. The cache entry is
// updated optimistically and rolled back if the remote update fails.
func (s *Store) UpdateStatus(ctx context.Context, id string, newStatus domain.RecordStatus) error {
	if !s.kind.ValidStatus(newStatus) {
		return apperrors.NewValidationError("unknown status for kind", map[string]any{
			"kind": string(s.kind), "status": string(newStatus),
		})
	}

	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFound("record", map[string]any{"id": id})
	}
	prev := s.cache[idx].Status
	if !s.kind.CanTransition(prev, newStatus) {
		s.mu.Unlock()
		return apperrors.NewValidationError("illegal status transition", map[string]any{
			"kind": string(s.kind), "from": string(prev), "to": string(newStatus),
		})
	}
	s.cache[idx].Status = newStatus
	s.cache[idx].UpdatedAt = time.Now()
	s.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.source.UpdateStatus(cctx, s.kind, id, newStatus); err != nil {
		s.rollback(id, prev, newStatus)
		return apperrors.FromRemote("status update", err)
	}

	s.changes.Publish(ctx, s.kind)
	return nil
}

// Subscribe registers for reconciliation callbacks. The callback fires after
// the cache has been refreshed, never before. The first subscriber attaches
// the store to its change feed; dropping the last one releases the feed
// subscription entirely.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	if s.feedCancel == nil {
		s.feedCancel = s.changes.Subscribe(s.kind, s.reconcile)
	}
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			if len(s.subs) == 0 && s.feedCancel != nil {
				s.feedCancel()
				s.feedCancel = nil
			}
			s.subMu.Unlock()
		})
	}
}

// ExportSnapshot serializes the current cache, in its current order, with no
// extra fields. It is purely local: no fetch is performed.
func (s *Store) ExportSnapshot() ([]byte, error) {
	s.mu.Lock()
	records := s.copyCacheLocked()
	s.mu.Unlock()
	return marshalSnapshot(records)
}

// ExportFileName names the downloadable artifact for a snapshot taken now.
func (s *Store) ExportFileName(now time.Time) string {
	return string(s.kind) + "_" + now.UTC().Format("2006-01-02") + ".json"
}

// Close detaches the store from its feed.
func (s *Store) Close() {
	s.subMu.Lock()
	s.subs = make(map[int]func())
	if s.feedCancel != nil {
		s.feedCancel()
		s.feedCancel = nil
	}
	s.subMu.Unlock()
}

// reconcile re-runs Load in response to a change signal. A single in-flight
// guard drops signals that arrive while a fetch is already running, so
// fetches never overlap. The reconciled server state is authoritative and
// may overwrite an in-flight optimistic update (last fetch wins).
func (s *Store) reconcile() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	if _, err := s.Load(context.Background()); err != nil {
		s.logger.Warn("reconcile failed; cache retained",
			zap.String("kind", string(s.kind)), zap.Error(err))
		return
	}
	s.notify()
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// rollback restores the prior status after a failed remote update, unless a
// reconciliation already replaced the optimistic value with server state.
func (s *Store) rollback(id string, prev, attempted domain.RecordStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx >= 0 && s.cache[idx].Status == attempted {
		s.cache[idx].Status = prev
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.cache {
		if s.cache[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) copyCacheLocked() []domain.TrackedRecord {
	out := make([]domain.TrackedRecord, len(s.cache))
	copy(out, s.cache)
	return out
}
