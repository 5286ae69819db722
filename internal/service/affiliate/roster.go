// internal/service/affiliate/roster.go
package affiliate

import (
	"sort"
	"strings"

	"referral-service/internal/domain/affiliate"
	"referral-service/internal/domain/lead"
)

// BuildRoster derives the affiliate roster from the current lead set. Pure
// full rebuild: correct and simple at the expected scale (tens to low
// thousands of leads); an incrementally maintained index would be the next
// step beyond that.
//
// Leads with an empty affiliate id are ignored. An affiliate appears iff at
// least one lead references it.
func BuildRoster(leads []lead.Lead) []affiliate.Affiliate {
	byID := make(map[string]*affiliate.Affiliate)

	for _, l := range leads {
		if l.AffiliateID == "" {
			continue
		}
		a, ok := byID[l.AffiliateID]
		if !ok {
			a = &affiliate.Affiliate{
				ID:       l.AffiliateID,
				JoinDate: l.CreatedAt,
				Status:   affiliate.StatusActive,
			}
			byID[l.AffiliateID] = a
		}
		a.ClientsCount++
		a.TotalCommissions += l.Commission
		if l.CreatedAt.Before(a.JoinDate) {
			a.JoinDate = l.CreatedAt
		}
		// The denormalized email is expected constant per affiliate; take the
		// latest non-empty copy seen.
		if l.AffiliateEmail != "" {
			a.Email = l.AffiliateEmail
			a.Name = displayName(l.AffiliateEmail)
		}
	}

	roster := make([]affiliate.Affiliate, 0, len(byID))
	for _, a := range byID {
		roster = append(roster, *a)
	}
	sort.Slice(roster, func(i, j int) bool {
		if !roster[i].JoinDate.Equal(roster[j].JoinDate) {
			return roster[i].JoinDate.Before(roster[j].JoinDate)
		}
		return roster[i].ID < roster[j].ID
	})
	return roster
}

// BuildStats derives one affiliate's dashboard figures from its scoped leads.
func BuildStats(leads []lead.Lead) affiliate.Stats {
	var s affiliate.Stats
	for _, l := range leads {
		s.ClientsCount++
		if l.Status.Reached(lead.StatusConfirmed) {
			s.ConfirmedSales++
		}
		switch l.Status {
		case lead.StatusConfirmed:
			s.PendingCommissions += l.Commission
		case lead.StatusPaid:
			s.PaidCommissions += l.Commission
		}
	}
	if s.ClientsCount > 0 {
		s.ConversionRate = float64(s.ConfirmedSales) / float64(s.ClientsCount)
	}
	return s
}

// BuildOverview derives the unscoped admin figures from the full lead set.
func BuildOverview(leads []lead.Lead) affiliate.Overview {
	o := affiliate.Overview{
		AffiliatesCount: len(BuildRoster(leads)),
		TotalClients:    len(leads),
	}
	for _, l := range leads {
		o.TotalCommissions += l.Commission
		if l.Status.Reached(lead.StatusConfirmed) {
			o.ConfirmedOrPaid++
		}
	}
	if o.TotalClients > 0 {
		o.ConversionRate = float64(o.ConfirmedOrPaid) / float64(o.TotalClients)
	}
	return o
}

// displayName is the local part of the email, matching how affiliates are
// labelled everywhere else.
func displayName(email string) string {
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[:at]
	}
	return email
}
