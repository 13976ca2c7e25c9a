package events

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

// ErrDuplicateEvent signals that a ledger row already exists for the
// (provider, event key) pair. It is the dedup signal, not a failure.
var ErrDuplicateEvent = errors.New("events: duplicate event")

// Processing statuses recorded on a ledger row.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// LedgerEntry is one recorded webhook delivery.
type LedgerEntry struct {
	Provider     string
	EventKey     string
	Status       string
	Payload      json.RawMessage
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WebhookLedger records inbound provider events and their processing outcome.
// The unique constraint on (provider, event_key) is the concurrency guard:
// exactly one insert wins, every other delivery observes ErrDuplicateEvent.
type WebhookLedger struct {
	pool rowQuerier
}

func NewWebhookLedger(pool *pgxpool.Pool) *WebhookLedger {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &WebhookLedger{pool: pool}
}

func newWebhookLedgerWithExec(exec rowQuerier) *WebhookLedger {
	if exec == nil {
		panic("events: exec required")
	}
	return &WebhookLedger{pool: exec}
}

// Insert records a new event with status processing. A uniqueness violation
// maps to ErrDuplicateEvent; any other failure is returned wrapped.
func (l *WebhookLedger) Insert(ctx context.Context, provider, eventKey string, payload []byte) error {
	query := `
		INSERT INTO webhook_events (provider, event_key, status, payload)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := l.pool.Exec(ctx, query, provider, eventKey, StatusProcessing, payload); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("events: insert webhook event: %w", err)
	}
	return nil
}

// MarkCompleted finalizes a ledger row after its handler succeeded.
func (l *WebhookLedger) MarkCompleted(ctx context.Context, provider, eventKey string) error {
	query := `
		UPDATE webhook_events
		SET status = $3, processed_at = now()
		WHERE provider = $1 AND event_key = $2
	`
	if _, err := l.pool.Exec(ctx, query, provider, eventKey, StatusCompleted); err != nil {
		return fmt.Errorf("events: mark completed: %w", err)
	}
	return nil
}

// MarkFailed finalizes a ledger row after its handler failed. The row stays
// in place so a retried delivery is still absorbed as a duplicate.
func (l *WebhookLedger) MarkFailed(ctx context.Context, provider, eventKey, errMsg string) error {
	query := `
		UPDATE webhook_events
		SET status = $3, error_message = $4, processed_at = now()
		WHERE provider = $1 AND event_key = $2
	`
	if _, err := l.pool.Exec(ctx, query, provider, eventKey, StatusFailed, errMsg); err != nil {
		return fmt.Errorf("events: mark failed: %w", err)
	}
	return nil
}

// Get loads a ledger row, mainly for forensic inspection and tests.
func (l *WebhookLedger) Get(ctx context.Context, provider, eventKey string) (*LedgerEntry, error) {
	query := `
		SELECT provider, event_key, status, payload, COALESCE(error_message, ''), created_at, processed_at
		FROM webhook_events
		WHERE provider = $1 AND event_key = $2
	`
	var entry LedgerEntry
	var payload []byte
	if err := l.pool.QueryRow(ctx, query, provider, eventKey).Scan(
		&entry.Provider,
		&entry.EventKey,
		&entry.Status,
		&payload,
		&entry.ErrorMessage,
		&entry.CreatedAt,
		&entry.ProcessedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("events: webhook event not found")
		}
		return nil, fmt.Errorf("events: load webhook event: %w", err)
	}
	entry.Payload = append([]byte(nil), payload...)
	return &entry, nil
}
