package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/handyhub/platform/pkg/logging"
)

// StubGateway approves everything without talking to a processor. Used in
// development environments without Stripe credentials.
type StubGateway struct {
	logger *logging.Logger
}

func NewStubGateway(logger *logging.Logger) *StubGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubGateway{logger: logger}
}

func (g *StubGateway) Authorize(ctx context.Context, amountCents int64, currency, paymentMethod string) (string, error) {
	intentID := "pi_stub_" + uuid.NewString()[:8]
	g.logger.Info("stub gateway: authorized", "intent_id", intentID, "amount_cents", amountCents, "currency", currency)
	return intentID, nil
}

func (g *StubGateway) Capture(ctx context.Context, intentID string, amountCents int64, idempotencyKey string) (*CaptureResult, error) {
	if intentID == "" {
		return nil, fmt.Errorf("%w: missing intent id", ErrCaptureFailed)
	}
	g.logger.Info("stub gateway: captured", "intent_id", intentID, "amount_cents", amountCents, "idempotency_key", idempotencyKey)
	return &CaptureResult{AmountReceived: amountCents, Status: "succeeded"}, nil
}

var _ Gateway = (*StubGateway)(nil)
var _ Gateway = (*StripeGateway)(nil)
