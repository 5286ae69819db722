// internal/domain/lead/dto.go
package lead

import (
	"strings"

	xerrors "referral-service/internal/pkg/errors"
)

// Draft carries the fields an affiliate supplies when referring a new client.
// The persistence layer assigns the id; status, amount and commission always
// start at their defaults.
type Draft struct {
	FirstName        string `json:"first_name" binding:"max=255"`
	LastName         string `json:"last_name" binding:"max=255"`
	Email            string `json:"email" binding:"omitempty,max=255"`
	Phone            string `json:"phone" binding:"max=20"`
	WhatsappPhone    string `json:"whatsapp_phone" binding:"max=20"`
	ProjectType      string `json:"project_type"`
	OtherProjectType string `json:"other_project_type"`

	AffiliateID    string `json:"-"`
	AffiliateEmail string `json:"-"`
	AddedBy        Origin `json:"-"`
}

// ResolvedProjectType returns the effective project type: the free-text
// specification when "Autre" was selected, the chosen type otherwise.
func (d Draft) ResolvedProjectType() string {
	if d.ProjectType == ProjectTypeOther {
		return strings.TrimSpace(d.OtherProjectType)
	}
	return strings.TrimSpace(d.ProjectType)
}

// Validate checks the required contact fields, project type and affiliate
// ownership before any write happens.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.FirstName) == "" {
		return xerrors.NewValidation("first_name", "must not be blank")
	}
	if strings.TrimSpace(d.LastName) == "" {
		return xerrors.NewValidation("last_name", "must not be blank")
	}
	if strings.TrimSpace(d.Email) == "" {
		return xerrors.NewValidation("email", "must not be blank")
	}
	if strings.TrimSpace(d.Phone) == "" {
		return xerrors.NewValidation("phone", "must not be blank")
	}
	if strings.TrimSpace(d.ProjectType) == "" {
		return xerrors.NewValidation("project_type", "must not be blank")
	}
	if d.ProjectType == ProjectTypeOther && d.ResolvedProjectType() == "" {
		return xerrors.NewValidation("other_project_type", "must be specified for 'Autre' projects")
	}
	if strings.TrimSpace(d.AffiliateID) == "" {
		return xerrors.NewValidation("affiliate_id", "owning affiliate is required")
	}
	return nil
}

// FieldUpdate is a partial merge of the mutable lead fields. Nil fields are
// left untouched by the persistence layer.
type FieldUpdate struct {
	Status          *Status  `json:"status,omitempty"`
	EstimatedAmount *float64 `json:"estimated_amount,omitempty"`
	Commission      *float64 `json:"commission,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u FieldUpdate) IsEmpty() bool {
	return u.Status == nil && u.EstimatedAmount == nil && u.Commission == nil
}
