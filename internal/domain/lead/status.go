// internal/domain/lead/status.go
package lead

import (
	xerrors "referral-service/internal/pkg/errors"
)

// Status is the sales funnel position of a lead. It only ever moves forward:
// pending -> confirmed -> paid.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
)

// ParseStatus maps a raw string to a known status, defaulting unknown or
// empty values to pending.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusConfirmed:
		return StatusConfirmed
	case StatusPaid:
		return StatusPaid
	default:
		return StatusPending
	}
}

func (s Status) rank() int {
	switch s {
	case StatusConfirmed:
		return 1
	case StatusPaid:
		return 2
	default:
		return 0
	}
}

// Reached reports whether the lead has progressed at least to target.
func (s Status) Reached(target Status) bool {
	return s.rank() >= target.rank()
}

// Transition validates a requested status change for the given lead.
// Same-state requests are idempotent no-ops. Backward moves and the
// pending -> paid skip are rejected with an InvalidTransitionError carrying
// both states; the lead's status must be left unchanged by the caller.
func Transition(leadID string, from, to Status) (Status, error) {
	from, to = ParseStatus(string(from)), ParseStatus(string(to))

	if from == to {
		return from, nil
	}
	if to.rank() != from.rank()+1 {
		return from, &xerrors.InvalidTransitionError{
			LeadID: leadID,
			From:   string(from),
			To:     string(to),
		}
	}
	return to, nil
}
