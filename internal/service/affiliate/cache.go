// internal/service/affiliate/cache.go
package affiliate

import (
	"sync"

	"referral-service/internal/domain/affiliate"
	"referral-service/internal/domain/lead"
)

// rosterCache holds the latest derived roster plus the lead snapshot it was
// built from, so per-affiliate stats can be answered without another pass
// over the store.
type rosterCache struct {
	mu    sync.RWMutex
	list  []affiliate.Affiliate
	leads []lead.Lead
	byAff map[string][]lead.Lead
}

func newRosterCache() *rosterCache {
	return &rosterCache{byAff: make(map[string][]lead.Lead)}
}

func (c *rosterCache) replace(roster []affiliate.Affiliate, leads []lead.Lead) {
	byAff := make(map[string][]lead.Lead)
	for _, l := range leads {
		if l.AffiliateID == "" {
			continue
		}
		byAff[l.AffiliateID] = append(byAff[l.AffiliateID], l)
	}

	c.mu.Lock()
	c.list = roster
	c.leads = leads
	c.byAff = byAff
	c.mu.Unlock()
}

func (c *rosterCache) roster() []affiliate.Affiliate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]affiliate.Affiliate, len(c.list))
	copy(out, c.list)
	return out
}

func (c *rosterCache) allLeads() []lead.Lead {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]lead.Lead, len(c.leads))
	copy(out, c.leads)
	return out
}

func (c *rosterCache) leadsFor(affiliateID string) []lead.Lead {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.byAff[affiliateID]
	out := make([]lead.Lead, len(src))
	copy(out, src)
	return out
}
