package backgroundcheck

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Normalized event types dispatched by the processor. Providers map their
// own webhook vocabulary onto these.
const (
	EventCheckCreated   = "check.created"
	EventCheckCompleted = "check.completed"
	EventCheckUpdated   = "check.updated"
	EventCheckFailed    = "check.failed"
)

var (
	// ErrSignatureInvalid indicates the webhook signature did not match the
	// raw body. The provider should not retry.
	ErrSignatureInvalid = errors.New("backgroundcheck: invalid webhook signature")

	// ErrUnknownProvider indicates no client is configured for the provider
	// named in the URL.
	ErrUnknownProvider = errors.New("backgroundcheck: unknown provider")

	// ErrCheckNotFound indicates the referenced check does not exist.
	ErrCheckNotFound = errors.New("backgroundcheck: check not found")
)

// Event is a provider webhook normalized into the internal vocabulary.
type Event struct {
	Type     string
	CheckID  string
	Provider string
	Data     json.RawMessage
}

// CheckStatus is the authoritative state of a check as reported by the
// provider's API, not by the webhook payload.
type CheckStatus struct {
	Status         string
	Recommendation string
	RawData        json.RawMessage
	CompletedAt    *time.Time
}

// Provider abstracts a background-check vendor: webhook verification plus
// the status API the completed handler re-fetches from.
type Provider interface {
	Name() string
	// SignatureHeader is the HTTP header carrying the webhook signature.
	SignatureHeader() string
	// VerifyAndParse checks the signature against the raw body and
	// normalizes the payload into an Event.
	VerifyAndParse(rawBody []byte, signature string) (*Event, error)
	// GetCheckStatus fetches the authoritative check state.
	GetCheckStatus(ctx context.Context, checkID string) (*CheckStatus, error)
}
