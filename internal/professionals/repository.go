package professionals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores professional profiles in the relational database.
type Repository struct {
	pool rowQuerier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("professionals: pgx pool required")
	}
	return &Repository{pool: pool}
}

func newRepositoryWithExec(exec rowQuerier) *Repository {
	if exec == nil {
		panic("professionals: exec required")
	}
	return &Repository{pool: exec}
}

// GetByID fetches a professional profile.
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `
		SELECT id, name, email, onboarding_status, account_status,
		       documents_verified, interview_completed,
		       COALESCE(background_check_status, ''), COALESCE(latest_background_check_id, ''),
		       created_at, updated_at
		FROM professionals
		WHERE id = $1
	`
	var p Profile
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.OnboardingStatus,
		&p.AccountStatus,
		&p.DocumentsVerified,
		&p.InterviewCompleted,
		&p.BackgroundCheckStatus,
		&p.LatestBackgroundCheckID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, fmt.Errorf("professionals: select failed: %w", err)
	}
	return &p, nil
}

// MirrorBackgroundCheck denormalizes the latest check status onto the
// profile so list/read paths never join the checks table.
func (r *Repository) MirrorBackgroundCheck(ctx context.Context, id, status, checkID string) error {
	query := `
		UPDATE professionals
		SET background_check_status = $2, latest_background_check_id = $3, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.pool.Exec(ctx, query, id, status, checkID)
	if err != nil {
		return fmt.Errorf("professionals: mirror background check: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProfessionalNotFound
	}
	return nil
}

// ApplyDecision persists the onboarding transition chosen by Evaluate.
func (r *Repository) ApplyDecision(ctx context.Context, id string, decision Decision) error {
	if decision.Action == ActionNone {
		return nil
	}
	query := `
		UPDATE professionals
		SET onboarding_status = $2, account_status = $3, updated_at = now()
		WHERE id = $1
	`
	ct, err := r.pool.Exec(ctx, query, id, decision.OnboardingStatus, decision.AccountStatus)
	if err != nil {
		return fmt.Errorf("professionals: apply onboarding decision: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProfessionalNotFound
	}
	return nil
}
