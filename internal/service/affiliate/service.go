// internal/service/affiliate/service.go
package affiliate

import (
	"context"
	"time"

	"referral-service/internal/domain/affiliate"
	"referral-service/internal/domain/lead"
	"referral-service/internal/metrics"
	"referral-service/internal/pkg/referralcode"
	"referral-service/internal/stream"

	"go.uber.org/zap"
)

// RosterService keeps the derived affiliate roster current against the lead
// store and serves reads from a cached copy. The roster is recomputed in full
// on every snapshot; it is never stored and never mutated directly.
type RosterService struct {
	store   *stream.Store
	logger  *zap.Logger
	baseURL string

	cache *rosterCache
}

func NewRosterService(store *stream.Store, baseURL string, logger *zap.Logger) *RosterService {
	return &RosterService{
		store:   store,
		logger:  logger,
		baseURL: baseURL,
		cache:   newRosterCache(),
	}
}

// Run subscribes to the full lead feed and rebuilds the cached roster on
// every emission until ctx is cancelled.
func (s *RosterService) Run(ctx context.Context) error {
	snaps, stop := s.store.Subscribe(stream.ScopeAll())
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			s.rebuild(snap)
		}
	}
}

func (s *RosterService) rebuild(leads []lead.Lead) {
	start := time.Now()
	roster := BuildRoster(leads)
	s.cache.replace(roster, leads)
	metrics.RosterRebuilt(time.Since(start), len(roster))
	s.logger.Debug("affiliate roster rebuilt",
		zap.Int("affiliates", len(roster)),
		zap.Int("leads", len(leads)),
	)
}

// Roster returns the latest derived roster.
func (s *RosterService) Roster() []affiliate.Affiliate {
	return s.cache.roster()
}

// StatsFor returns the dashboard figures for one affiliate's leads.
func (s *RosterService) StatsFor(affiliateID string) affiliate.Stats {
	return BuildStats(s.cache.leadsFor(affiliateID))
}

// Overview returns the unscoped admin figures.
func (s *RosterService) Overview() affiliate.Overview {
	return BuildOverview(s.cache.allLeads())
}

// ReferralLink builds the shareable link for an affiliate's email.
func (s *RosterService) ReferralLink(email string) (code, link string) {
	return referralcode.Generate(email), referralcode.Link(s.baseURL, email)
}
