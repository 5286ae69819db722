// internal/repository/postgres/lead_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"referral-service/internal/domain/lead"
	xerrors "referral-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

type LeadRepository struct {
	db *pgxpool.Pool
}

func NewLeadRepository(db *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{db: db}
}

const leadColumns = `
	id, first_name, last_name, email, phone, whatsapp_phone, project_type,
	affiliate_id, affiliate_email, estimated_amount, commission, status,
	created_at, added_by
`

// Create inserts a new lead with the funnel defaults. The id is assigned
// here, not by the caller.
func (r *LeadRepository) Create(ctx context.Context, draft lead.Draft) (string, error) {
	query := `
		INSERT INTO leads (
			id, first_name, last_name, email, phone, whatsapp_phone,
			project_type, affiliate_id, affiliate_email,
			estimated_amount, commission, status, created_at, added_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, $10, $11, $12)
	`

	id := ulid.Make().String()
	addedBy := draft.AddedBy
	if addedBy != lead.OriginAffiliate {
		addedBy = lead.OriginSystem
	}

	_, err := r.db.Exec(ctx, query,
		id,
		strings.TrimSpace(draft.FirstName),
		strings.TrimSpace(draft.LastName),
		strings.ToLower(strings.TrimSpace(draft.Email)),
		strings.TrimSpace(draft.Phone),
		strings.TrimSpace(draft.WhatsappPhone),
		draft.ResolvedProjectType(),
		draft.AffiliateID,
		draft.AffiliateEmail,
		string(lead.StatusPending),
		time.Now().UTC(),
		string(addedBy),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}
	return id, nil
}

// FindByID retrieves a single lead.
func (r *LeadRepository) FindByID(ctx context.Context, id string) (*lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	l, err := scanLead(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return l, nil
}

// List returns every lead, or only one affiliate's when affiliateID is set.
func (r *LeadRepository) List(ctx context.Context, affiliateID string) ([]lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []interface{}{}
	if affiliateID != "" {
		query += ` WHERE affiliate_id = $1`
		args = append(args, affiliateID)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []lead.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leads: %w", err)
	}
	return leads, nil
}

// UpdateFields merges the non-nil subset of mutable fields into the record.
// Status, amount and commission are the only admin-mutable columns; ownership
// is immutable after creation.
func (r *LeadRepository) UpdateFields(ctx context.Context, id string, update lead.FieldUpdate) error {
	sets := []string{}
	args := []interface{}{}
	arg := 1

	if update.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*update.Status))
		arg++
	}
	if update.EstimatedAmount != nil {
		sets = append(sets, fmt.Sprintf("estimated_amount = $%d", arg))
		args = append(args, *update.EstimatedAmount)
		arg++
	}
	if update.Commission != nil {
		sets = append(sets, fmt.Sprintf("commission = $%d", arg))
		args = append(args, *update.Commission)
		arg++
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = $%d", strings.Join(sets, ", "), arg)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update lead fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(row rowScanner) (*lead.Lead, error) {
	var l lead.Lead
	var status, addedBy string
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.WhatsappPhone,
		&l.ProjectType, &l.AffiliateID, &l.AffiliateEmail,
		&l.EstimatedAmount, &l.Commission, &status, &l.CreatedAt, &addedBy,
	)
	if err != nil {
		return nil, err
	}
	l.Status = lead.Status(status)
	l.AddedBy = lead.Origin(addedBy)
	return &l, nil
}
