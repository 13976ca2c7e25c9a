package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrContactNotFound indicates no user row exists for the id.
var ErrContactNotFound = errors.New("notify: contact not found")

// Contact is the deliverable address of a platform user.
type Contact struct {
	Email string
	Name  string
}

// ContactResolver turns a user id into a deliverable contact.
type ContactResolver interface {
	Contact(ctx context.Context, userID string) (*Contact, error)
}

type contactQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGContactResolver resolves contacts from the users table.
type PGContactResolver struct {
	pool contactQuerier
}

func NewPGContactResolver(pool *pgxpool.Pool) *PGContactResolver {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &PGContactResolver{pool: pool}
}

func newPGContactResolverWithExec(exec contactQuerier) *PGContactResolver {
	return &PGContactResolver{pool: exec}
}

func (r *PGContactResolver) Contact(ctx context.Context, userID string) (*Contact, error) {
	query := `SELECT email, name FROM users WHERE id = $1`
	var c Contact
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&c.Email, &c.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("notify: resolve contact: %w", err)
	}
	return &c, nil
}

var _ ContactResolver = (*PGContactResolver)(nil)
