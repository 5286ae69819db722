// internal/repository/postgres/affiliate_profile_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"referral-service/internal/domain/affiliate"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AffiliateProfileRepository struct {
	db *pgxpool.Pool
}

func NewAffiliateProfileRepository(db *pgxpool.Pool) *AffiliateProfileRepository {
	return &AffiliateProfileRepository{db: db}
}

// Create stores a new signup profile.
func (r *AffiliateProfileRepository) Create(ctx context.Context, p *affiliate.Profile) error {
	query := `
		INSERT INTO affiliate_profiles (
			id, first_name, last_name, email, phone, role,
			password_hash, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.FirstName, p.LastName,
		strings.ToLower(strings.TrimSpace(p.Email)),
		p.Phone, p.Role, p.PasswordHash, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create affiliate profile: %w", err)
	}
	return nil
}

// FindByEmail fetches a profile by its (lower-cased) email.
func (r *AffiliateProfileRepository) FindByEmail(ctx context.Context, email string) (*affiliate.Profile, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, role,
		       password_hash, is_active, created_at
		FROM affiliate_profiles
		WHERE email = $1
	`

	var p affiliate.Profile
	err := r.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Role,
		&p.PasswordHash, &p.IsActive, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find affiliate profile: %w", err)
	}
	return &p, nil
}

// FindByID fetches a profile by id.
func (r *AffiliateProfileRepository) FindByID(ctx context.Context, id string) (*affiliate.Profile, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, role,
		       password_hash, is_active, created_at
		FROM affiliate_profiles
		WHERE id = $1
	`

	var p affiliate.Profile
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Role,
		&p.PasswordHash, &p.IsActive, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find affiliate profile: %w", err)
	}
	return &p, nil
}

// ExistsByEmail reports whether a profile already uses the email.
func (r *AffiliateProfileRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM affiliate_profiles WHERE email = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return exists, nil
}
