// internal/domain/affiliate/entity.go
package affiliate

import "time"

// Affiliate is a derived aggregate over the leads sharing an owning identity.
// It is never stored: the roster is rebuilt from the lead set on every change,
// so an affiliate exists here iff at least one lead references it.
type Affiliate struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	TotalCommissions float64   `json:"total_commissions"`
	ClientsCount     int       `json:"clients_count"`
	JoinDate         time.Time `json:"join_date"`
	Status           string    `json:"status"`
}

const StatusActive = "active"

// Stats are the per-affiliate figures the dashboards read alongside the
// roster entry. Pending covers confirmed leads, Paid covers paid leads.
type Stats struct {
	ClientsCount       int     `json:"clients_count"`
	ConfirmedSales     int     `json:"confirmed_sales"`
	ConversionRate     float64 `json:"conversion_rate"`
	PendingCommissions float64 `json:"pending_commissions"`
	PaidCommissions    float64 `json:"paid_commissions"`
}

// Overview aggregates the unscoped figures for the admin dashboard.
type Overview struct {
	AffiliatesCount  int     `json:"affiliates_count"`
	TotalClients     int     `json:"total_clients"`
	ConfirmedOrPaid  int     `json:"confirmed_or_paid"`
	ConversionRate   float64 `json:"conversion_rate"`
	TotalCommissions float64 `json:"total_commissions"`
}
