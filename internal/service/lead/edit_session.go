// internal/service/lead/edit_session.go
package lead

import (
	"context"
	"strconv"
	"sync"

	"referral-service/internal/domain/lead"
	"referral-service/internal/metrics"
	xerrors "referral-service/internal/pkg/errors"
	"referral-service/internal/stream"

	"go.uber.org/zap"
)

// EditSessions lets an administrator revise a lead's estimated amount and
// commission together, atomically. Each consumer holds at most one open
// session; opening a second discards the first. Commit issues exactly one
// combined field update so no reader ever observes a half-updated pair.
//
// Sessions do not coordinate across consumers: two administrators editing the
// same lead can still race, last write wins. That is a documented limitation,
// not something this type papers over.
type EditSessions struct {
	store  *stream.Store
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*editSession
}

type editSession struct {
	leadID     string
	amount     string
	commission string
	inFlight   bool
}

func NewEditSessions(store *stream.Store, logger *zap.Logger) *EditSessions {
	return &EditSessions{
		store:    store,
		logger:   logger,
		sessions: make(map[string]*editSession),
	}
}

// Open starts an edit session for the consumer, prefilled with the lead's
// current values. Any session the consumer already had is discarded.
func (e *EditSessions) Open(consumerID, leadID string, currentAmount, currentCommission float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[consumerID] = &editSession{
		leadID:     leadID,
		amount:     strconv.FormatFloat(currentAmount, 'f', -1, 64),
		commission: strconv.FormatFloat(currentCommission, 'f', -1, 64),
	}
}

// SetFields stages new raw input values on the open session. Values are kept
// as entered; parsing happens at commit so the caller can correct mistakes.
func (e *EditSessions) SetFields(consumerID, amount, commission string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[consumerID]
	if !ok {
		return xerrors.ErrNoSession
	}
	sess.amount = amount
	sess.commission = commission
	return nil
}

// Commit validates both staged values and writes them in a single combined
// update, then closes the session. Validation failures leave the session open
// for correction. A commit racing an in-flight commit fails with
// ErrSessionBusy; the caller should wait for the first to resolve.
func (e *EditSessions) Commit(ctx context.Context, consumerID string) error {
	e.mu.Lock()
	sess, ok := e.sessions[consumerID]
	if !ok {
		e.mu.Unlock()
		return xerrors.ErrNoSession
	}
	if sess.inFlight {
		e.mu.Unlock()
		metrics.EditRejected()
		return xerrors.ErrSessionBusy
	}

	amount, err := parseMonetary("estimated_amount", sess.amount)
	if err != nil {
		e.mu.Unlock()
		metrics.EditRejected()
		return err
	}
	commission, err := parseMonetary("commission", sess.commission)
	if err != nil {
		e.mu.Unlock()
		metrics.EditRejected()
		return err
	}

	sess.inFlight = true
	leadID := sess.leadID
	e.mu.Unlock()

	// One write carrying both fields; never two separate calls.
	update := lead.FieldUpdate{EstimatedAmount: &amount, Commission: &commission}
	writeErr := e.store.ApplyFieldUpdate(ctx, leadID, update)

	e.mu.Lock()
	defer e.mu.Unlock()
	if writeErr != nil {
		if cur, ok := e.sessions[consumerID]; ok && cur == sess {
			sess.inFlight = false
		}
		return writeErr
	}
	if cur, ok := e.sessions[consumerID]; ok && cur == sess {
		delete(e.sessions, consumerID)
	}

	metrics.EditCommitted()
	e.logger.Info("lead amounts committed",
		zap.String("lead_id", leadID),
		zap.Float64("estimated_amount", amount),
		zap.Float64("commission", commission),
	)
	return nil
}

// Discard closes the consumer's session without writing.
func (e *EditSessions) Discard(consumerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, consumerID)
}

// HasOpen reports whether the consumer currently holds a session.
func (e *EditSessions) HasOpen(consumerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[consumerID]
	return ok
}

func parseMonetary(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, xerrors.NewValidation(field, "must be a number")
	}
	if v < 0 {
		return 0, xerrors.NewValidation(field, "must not be negative")
	}
	return v, nil
}
