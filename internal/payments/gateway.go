package payments

import (
	"context"
	"errors"
)

// ErrCaptureFailed wraps every capture failure that left no money moved:
// network errors, gateway declines, timeouts. Callers may retry.
var ErrCaptureFailed = errors.New("payments: capture failed")

// CaptureResult is the gateway's confirmation of a capture. AmountReceived is
// authoritative: when it differs from the requested amount, the gateway's
// value is the one that moved.
type CaptureResult struct {
	AmountReceived  int64
	Status          string
	AlreadyCaptured bool
}

// Gateway wraps the external payment processor. Capture is the single
// irreversible operation in the settlement flow; implementations must pass
// the idempotency key through so a retried call cannot double-charge.
type Gateway interface {
	Authorize(ctx context.Context, amountCents int64, currency, paymentMethod string) (string, error)
	Capture(ctx context.Context, intentID string, amountCents int64, idempotencyKey string) (*CaptureResult, error)
}
