// internal/repository/memory/lead_source.go
package memory

import (
	"context"
	"sync"
	"time"

	"referral-service/internal/domain/lead"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/stream"

	"github.com/oklog/ulid/v2"
)

// LeadSource is an in-memory stream.Source backed by a slice. It serves local
// runs and tests as the substitutable counterpart of the Postgres source, and
// records every field-update call so tests can assert write atomicity.
type LeadSource struct {
	mu      sync.Mutex
	leads   []lead.Lead
	subs    map[int]*feed
	nextSub int

	updateCalls []RecordedUpdate
}

// RecordedUpdate is one observed UpdateLeadFields invocation.
type RecordedUpdate struct {
	LeadID string
	Update lead.FieldUpdate
}

type feed struct {
	scope stream.Scope
	ch    chan []lead.Lead
	once  sync.Once
}

// closeOnce guards against the unsubscribe callback and DropFeed racing to
// close the same channel.
func (f *feed) closeOnce() {
	f.once.Do(func() { close(f.ch) })
}

func NewLeadSource(seed ...lead.Lead) *LeadSource {
	s := &LeadSource{subs: make(map[int]*feed)}
	s.leads = append(s.leads, seed...)
	return s
}

func (s *LeadSource) SubscribeLeads(ctx context.Context, scope stream.Scope) (<-chan []lead.Lead, func(), error) {
	s.mu.Lock()
	f := &feed{scope: scope, ch: make(chan []lead.Lead, 1)}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = f
	f.ch <- s.snapshotLocked(scope)
	s.mu.Unlock()

	stop := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		f.closeOnce()
	}
	return f.ch, stop, nil
}

func (s *LeadSource) CreateLead(ctx context.Context, draft lead.Draft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := lead.Lead{
		ID:              ulid.Make().String(),
		FirstName:       draft.FirstName,
		LastName:        draft.LastName,
		Email:           draft.Email,
		Phone:           draft.Phone,
		WhatsappPhone:   draft.WhatsappPhone,
		ProjectType:     draft.ResolvedProjectType(),
		AffiliateID:     draft.AffiliateID,
		AffiliateEmail:  draft.AffiliateEmail,
		Status:          lead.StatusPending,
		EstimatedAmount: 0,
		Commission:      0,
		CreatedAt:       time.Now().UTC(),
		AddedBy:         draft.AddedBy,
	}
	s.leads = append(s.leads, l)
	s.broadcastLocked()
	return l.ID, nil
}

func (s *LeadSource) UpdateLeadFields(ctx context.Context, id string, update lead.FieldUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.leads {
		if s.leads[i].ID != id {
			continue
		}
		if update.Status != nil {
			s.leads[i].Status = *update.Status
		}
		if update.EstimatedAmount != nil {
			s.leads[i].EstimatedAmount = *update.EstimatedAmount
		}
		if update.Commission != nil {
			s.leads[i].Commission = *update.Commission
		}
		s.updateCalls = append(s.updateCalls, RecordedUpdate{LeadID: id, Update: update})
		s.broadcastLocked()
		return nil
	}
	return xerrors.ErrNotFound
}

// Seed injects a record as-is, bypassing creation defaults, and re-emits.
// Lets tests feed malformed legacy records through the ingestion boundary.
func (s *LeadSource) Seed(l lead.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, l)
	s.broadcastLocked()
}

// DropFeed closes every live subscription, simulating a failed live feed.
func (s *LeadSource) DropFeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.subs {
		f.closeOnce()
		delete(s.subs, id)
	}
}

// UpdateCalls returns the field-update invocations observed so far.
func (s *LeadSource) UpdateCalls() []RecordedUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedUpdate, len(s.updateCalls))
	copy(out, s.updateCalls)
	return out
}

func (s *LeadSource) broadcastLocked() {
	for _, f := range s.subs {
		snap := s.snapshotLocked(f.scope)
		select {
		case f.ch <- snap:
		default:
			select {
			case <-f.ch:
			default:
			}
			f.ch <- snap
		}
	}
}

func (s *LeadSource) snapshotLocked(scope stream.Scope) []lead.Lead {
	out := make([]lead.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		if scope.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}
