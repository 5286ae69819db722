// internal/domain/affiliate/profile.go
package affiliate

import "time"

// Profile is the stored signup record for an affiliate account. Unlike the
// derived Affiliate roster entry it has its own lifecycle: it is created at
// registration and holds the credentials hash.
type Profile struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleAdmin     = "admin"
	RoleAffiliate = "affiliate"
)
