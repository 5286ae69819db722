// internal/stream/source.go
package stream

import (
	"context"

	"referral-service/internal/domain/lead"
)

// Scope narrows a subscription to one affiliate's leads. The zero value
// covers the whole collection (admin view).
type Scope struct {
	AffiliateID string
}

func ScopeAll() Scope { return Scope{} }

func ScopeAffiliate(affiliateID string) Scope {
	return Scope{AffiliateID: affiliateID}
}

func (s Scope) All() bool { return s.AffiliateID == "" }

func (s Scope) Matches(l lead.Lead) bool {
	return s.All() || l.AffiliateID == s.AffiliateID
}

// Source is the persistence capability the store depends on. Emissions are
// full snapshots of the scoped set, never deltas, and the collaborator may
// coalesce writes — consumers must not assume per-write delivery. The
// returned stop function releases the subscription; the channel closing for
// any other reason means the live feed failed.
//
// Implementations: postgres.LeadSource (production), memory.LeadSource
// (tests and local runs).
type Source interface {
	SubscribeLeads(ctx context.Context, scope Scope) (<-chan []lead.Lead, func(), error)
	CreateLead(ctx context.Context, draft lead.Draft) (string, error)
	UpdateLeadFields(ctx context.Context, id string, update lead.FieldUpdate) error
}
