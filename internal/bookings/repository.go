package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `
	id, customer_id, professional_id, service_name, status,
	scheduled_at, checked_in_at, checked_out_at,
	service_latitude, service_longitude, check_out_latitude, check_out_longitude,
	estimated_duration_minutes, actual_duration_minutes, COALESCE(completion_notes, ''),
	COALESCE(payment_intent_id, ''), COALESCE(payment_status, ''), currency,
	amount_authorized_cents, time_extension_cents, COALESCE(amount_captured_cents, 0),
	created_at, updated_at`

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores bookings in the relational database.
type Repository struct {
	pool db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{pool: pool}
}

func newRepositoryWithDB(pool db) *Repository {
	if pool == nil {
		panic("bookings: db required")
	}
	return &Repository{pool: pool}
}

// GetByID fetches a booking without locking it.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

// BeginCheckOut opens a transaction and locks the booking row for the
// duration of the settlement. The caller must Commit or Rollback.
func (r *Repository) BeginCheckOut(ctx context.Context, id uuid.UUID) (CheckOutTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("bookings: begin check-out tx: %w", err)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	b, err := scanBooking(tx.QueryRow(ctx, query, id))
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: lock booking: %w", err)
	}
	return &checkOutTx{tx: tx, booking: b}, nil
}

// CheckOutTx is a settlement transaction holding a row lock on one booking.
type CheckOutTx interface {
	// Booking returns the row as read under the lock.
	Booking() *Booking
	// Complete writes the check-out fields, conditioned on the booking still
	// being in_progress.
	Complete(ctx context.Context, c Completion) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type checkOutTx struct {
	tx      pgx.Tx
	booking *Booking
}

func (t *checkOutTx) Booking() *Booking { return t.booking }

func (t *checkOutTx) Complete(ctx context.Context, c Completion) error {
	query := `
		UPDATE bookings
		SET status = $2,
		    checked_out_at = $3,
		    check_out_latitude = $4,
		    check_out_longitude = $5,
		    actual_duration_minutes = $6,
		    completion_notes = $7,
		    amount_captured_cents = $8,
		    payment_status = $9,
		    updated_at = now()
		WHERE id = $1 AND status = $10
	`
	ct, err := t.tx.Exec(ctx, query,
		t.booking.ID,
		StatusCompleted,
		c.CheckedOutAt,
		c.Latitude,
		c.Longitude,
		c.ActualDurationMinutes,
		c.CompletionNotes,
		c.AmountCapturedCents,
		c.PaymentStatus,
		StatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("bookings: complete booking: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrConcurrentlyModified
	}
	return nil
}

func (t *checkOutTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("bookings: commit check-out: %w", err)
	}
	return nil
}

func (t *checkOutTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&b.ProfessionalID,
		&b.ServiceName,
		&b.Status,
		&b.ScheduledAt,
		&b.CheckedInAt,
		&b.CheckedOutAt,
		&b.ServiceLatitude,
		&b.ServiceLongitude,
		&b.CheckOutLatitude,
		&b.CheckOutLongitude,
		&b.EstimatedDurationMinutes,
		&b.ActualDurationMinutes,
		&b.CompletionNotes,
		&b.PaymentIntentID,
		&b.PaymentStatus,
		&b.Currency,
		&b.AmountAuthorizedCents,
		&b.TimeExtensionCents,
		&b.AmountCapturedCents,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
