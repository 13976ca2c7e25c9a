package backgroundcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Check is one background check ordered for a professional. The row is
// created when the check is ordered; webhooks and status fetches update it.
type Check struct {
	ID             string
	ProfessionalID string
	Provider       string
	Status         string
	Recommendation string
	RawData        json.RawMessage
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores background checks in the relational database.
type Repository struct {
	pool rowQuerier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("backgroundcheck: pgx pool required")
	}
	return &Repository{pool: pool}
}

func newRepositoryWithExec(exec rowQuerier) *Repository {
	if exec == nil {
		panic("backgroundcheck: exec required")
	}
	return &Repository{pool: exec}
}

// GetByID fetches a check by its provider-issued id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Check, error) {
	query := `
		SELECT id, professional_id, provider, status,
		       COALESCE(recommendation, ''), raw_data, completed_at,
		       created_at, updated_at
		FROM background_checks
		WHERE id = $1
	`
	var c Check
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.ProfessionalID,
		&c.Provider,
		&c.Status,
		&c.Recommendation,
		&c.RawData,
		&c.CompletedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCheckNotFound
		}
		return nil, fmt.Errorf("backgroundcheck: select failed: %w", err)
	}
	return &c, nil
}

// UpdateStatus stamps an interim status on the check row.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE background_checks
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("backgroundcheck: update status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCheckNotFound
	}
	return nil
}

// SaveResult persists the authoritative completed state fetched from the
// provider.
func (r *Repository) SaveResult(ctx context.Context, id, status, recommendation string, rawData json.RawMessage, completedAt *time.Time) error {
	query := `
		UPDATE background_checks
		SET status = $2, recommendation = $3, raw_data = $4, completed_at = $5, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.pool.Exec(ctx, query, id, status, recommendation, rawData, completedAt)
	if err != nil {
		return fmt.Errorf("backgroundcheck: save result: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCheckNotFound
	}
	return nil
}
