// internal/service/lead/service.go
package lead

import (
	"context"

	"referral-service/internal/domain/identity"
	"referral-service/internal/domain/lead"
	"referral-service/internal/metrics"
	"referral-service/internal/stream"

	"go.uber.org/zap"
)

// LeadService drives the lead lifecycle: affiliate-scoped creation and the
// admin-only funnel transitions. All reads and writes go through the store, so
// every mutation comes back as a fresh snapshot for subscribers.
type LeadService struct {
	store  *stream.Store
	logger *zap.Logger
}

func NewLeadService(store *stream.Store, logger *zap.Logger) *LeadService {
	return &LeadService{store: store, logger: logger}
}

// Create registers a new referral owned by the authenticated identity. The
// identity is passed in explicitly; ownership is stamped here and is
// immutable afterwards.
func (s *LeadService) Create(ctx context.Context, ident identity.Identity, draft lead.Draft) (string, error) {
	draft.AffiliateID = ident.ID
	draft.AffiliateEmail = ident.Email
	draft.AddedBy = lead.OriginAffiliate
	return s.store.Create(ctx, draft)
}

// Confirm moves a pending lead to confirmed. Confirming an already-confirmed
// lead is a no-op; confirming a paid lead is a regression and fails.
func (s *LeadService) Confirm(ctx context.Context, leadID string) error {
	return s.transition(ctx, leadID, lead.StatusConfirmed)
}

// MarkPaid moves a confirmed lead to paid, the terminal state. Idempotent on
// already-paid leads; rejected from pending (the funnel does not skip).
func (s *LeadService) MarkPaid(ctx context.Context, leadID string) error {
	return s.transition(ctx, leadID, lead.StatusPaid)
}

func (s *LeadService) transition(ctx context.Context, leadID string, target lead.Status) error {
	current, err := s.store.Find(leadID)
	if err != nil {
		return err
	}

	next, err := lead.Transition(leadID, current.Status, target)
	if err != nil {
		return err
	}
	if next == current.Status {
		// Idempotent repeat: no write, nothing changes.
		return nil
	}

	update := lead.FieldUpdate{Status: &next}
	if err := s.store.ApplyFieldUpdate(ctx, leadID, update); err != nil {
		return err
	}

	metrics.StatusTransition(string(next))
	s.logger.Info("lead status transitioned",
		zap.String("lead_id", leadID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
	)
	return nil
}

// List returns the current scoped snapshot for one-shot reads.
func (s *LeadService) List(scope stream.Scope) []lead.Lead {
	return s.store.Snapshot(scope)
}

// Get returns the current copy of one lead.
func (s *LeadService) Get(leadID string) (lead.Lead, error) {
	return s.store.Find(leadID)
}
