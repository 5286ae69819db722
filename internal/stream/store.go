// internal/stream/store.go
package stream

import (
	"context"
	"sync"

	"referral-service/internal/domain/lead"
	"referral-service/internal/metrics"
	xerrors "referral-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// Store keeps the canonical in-memory lead set current against the Source's
// live feed and fans full snapshots out to scoped consumers. All defaulting
// happens here, at the single ingestion boundary, so downstream components
// only ever see fully populated records.
type Store struct {
	source Source
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot []lead.Lead
	ready    bool
	degraded bool
	subs     map[int]*subscription
	nextSub  int
}

type subscription struct {
	scope Scope
	ch    chan []lead.Lead
	once  sync.Once
}

func (sub *subscription) closeOnce() {
	sub.once.Do(func() { close(sub.ch) })
}

func NewStore(source Source, logger *zap.Logger) *Store {
	return &Store{
		source: source,
		logger: logger,
		subs:   make(map[int]*subscription),
	}
}

// Run subscribes to the source with an unscoped filter and applies each
// emission until ctx is cancelled. If the feed drops, the store flips to
// degraded and keeps serving the last known snapshot; reconnection policy
// belongs to the source.
func (s *Store) Run(ctx context.Context) error {
	feed, stop, err := s.source.SubscribeLeads(ctx, ScopeAll())
	if err != nil {
		s.setDegraded()
		return xerrors.Wrap(err, "lead feed subscription failed")
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-feed:
			if !ok {
				s.setDegraded()
				s.logger.Warn("lead feed dropped, serving last known snapshot")
				// Stay alive so readers keep getting the stale set.
				<-ctx.Done()
				return xerrors.ErrSyncDegraded
			}
			s.apply(snap)
		}
	}
}

// apply replaces the canonical set wholesale with a normalized copy of the
// emission and fans the new state out to every live subscription.
func (s *Store) apply(snap []lead.Lead) {
	normalized := make([]lead.Lead, len(snap))
	for i, l := range snap {
		normalized[i] = lead.Normalize(l)
	}

	s.mu.Lock()
	s.snapshot = normalized
	s.ready = true
	s.degraded = false
	// Delivery happens under the lock so no subscription can be closed
	// mid-send; deliver never blocks, so this stays cheap.
	for _, sub := range s.subs {
		deliver(sub.ch, filter(normalized, sub.scope))
	}
	s.mu.Unlock()

	metrics.SnapshotApplied(len(normalized))
}

// deliver pushes a snapshot without blocking: a consumer that has not drained
// the previous emission just gets it superseded. Snapshots are authoritative,
// so dropping a stale one is always safe.
func deliver(ch chan []lead.Lead, snap []lead.Lead) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Subscribe returns a channel of full, self-consistent snapshots for the
// scope, starting with the current state if one has been ingested. The feed
// never terminates on its own; call the returned function to release it.
func (s *Store) Subscribe(scope Scope) (<-chan []lead.Lead, func()) {
	sub := &subscription{scope: scope, ch: make(chan []lead.Lead, 1)}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	if s.ready {
		sub.ch <- filter(s.snapshot, scope)
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.closeOnce()
	}
	return sub.ch, cancel
}

// Snapshot returns a copy of the current scoped set for one-shot reads.
func (s *Store) Snapshot(scope Scope) []lead.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter(s.snapshot, scope)
}

// Degraded reports whether the live feed has dropped and reads are being
// served from the last known snapshot.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// setDegraded flips the store into stale-but-available mode and terminates
// every live subscription feed. Reads keep working; subscribers learn about
// the condition through the closed channel plus Degraded().
func (s *Store) setDegraded() {
	s.mu.Lock()
	s.degraded = true
	subs := make([]*subscription, 0, len(s.subs))
	for id, sub := range s.subs {
		subs = append(subs, sub)
		delete(s.subs, id)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.closeOnce()
	}
	metrics.FeedDegraded()
}

// Create validates the draft and hands it to the persistence collaborator.
// New leads always start pending with zero amount and commission; the change
// comes back through the feed, closing the loop.
func (s *Store) Create(ctx context.Context, draft lead.Draft) (string, error) {
	if err := draft.Validate(); err != nil {
		return "", err
	}
	id, err := s.source.CreateLead(ctx, draft)
	if err != nil {
		return "", xerrors.Wrap(err, "failed to create lead")
	}
	metrics.LeadCreated()
	s.logger.Info("lead created",
		zap.String("lead_id", id),
		zap.String("affiliate_id", draft.AffiliateID),
		zap.String("project_type", draft.ResolvedProjectType()),
	)
	return id, nil
}

// ApplyFieldUpdate merges the given subset of mutable fields into the target
// record. Fields not present are untouched.
func (s *Store) ApplyFieldUpdate(ctx context.Context, id string, update lead.FieldUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	if err := s.source.UpdateLeadFields(ctx, id, update); err != nil {
		return err
	}
	s.logger.Info("lead fields updated", zap.String("lead_id", id))
	return nil
}

// Find returns the current copy of a single lead from the canonical set.
func (s *Store) Find(id string) (lead.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.snapshot {
		if l.ID == id {
			return l, nil
		}
	}
	return lead.Lead{}, xerrors.ErrNotFound
}

func filter(snap []lead.Lead, scope Scope) []lead.Lead {
	if scope.All() {
		out := make([]lead.Lead, len(snap))
		copy(out, snap)
		return out
	}
	out := make([]lead.Lead, 0)
	for _, l := range snap {
		if scope.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
