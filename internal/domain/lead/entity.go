// internal/domain/lead/entity.go
package lead

import (
	"sort"
	"strings"
	"time"
)

// Origin records who entered the lead.
type Origin string

const (
	OriginAffiliate Origin = "affiliate"
	OriginSystem    Origin = "system"
)

// ProjectTypes the intake form offers. "Autre" requires a free-text
// specification at creation time.
var ProjectTypes = []string{
	"Site Web Vitrine",
	"E-commerce",
	"Application Web",
	"Application Mobile",
	"Refonte de Site",
	"SEO/Référencement",
	"Maintenance",
	"Formation",
	"Portfolio",
	"Autre",
}

const ProjectTypeOther = "Autre"

// Lead is a referred prospective client owned by one affiliate.
type Lead struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	WhatsappPhone string `json:"whatsapp_phone,omitempty"`
	ProjectType   string `json:"project_type"`

	// Ownership: AffiliateID is immutable after creation. AffiliateEmail is a
	// denormalized copy kept for display.
	AffiliateID    string `json:"affiliate_id"`
	AffiliateEmail string `json:"affiliate_email"`

	EstimatedAmount float64 `json:"estimated_amount"`
	Commission      float64 `json:"commission"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	AddedBy   Origin    `json:"added_by"`
}

// ClientName is the combined display name.
func (l Lead) ClientName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Newest returns a copy sorted by creation time, most recent first.
// Ties break on ID so the order is stable across snapshots.
func Newest(leads []Lead) []Lead {
	out := make([]Lead, len(leads))
	copy(out, leads)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Normalize defaults absent or malformed fields so downstream components
// never observe missing data. Older records from the persistence layer may
// lack fields entirely; this is the single place that absorbs that drift.
func Normalize(l Lead) Lead {
	l.Status = ParseStatus(string(l.Status))
	if l.EstimatedAmount < 0 {
		l.EstimatedAmount = 0
	}
	if l.Commission < 0 {
		l.Commission = 0
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.AddedBy != OriginAffiliate {
		l.AddedBy = OriginSystem
	}
	return l
}
