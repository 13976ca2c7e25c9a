package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/handyhub/platform/pkg/logging"
)

var stripeTracer = otel.Tracer("handyhub.internal.payments.stripe")

// StripeGateway talks to the Stripe payment-intents API.
type StripeGateway struct {
	secretKey  string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewStripeGateway creates a gateway backed by the Stripe API.
func NewStripeGateway(secretKey string, logger *logging.Logger) *StripeGateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &StripeGateway{
		secretKey:  secretKey,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (g *StripeGateway) WithBaseURL(baseURL string) *StripeGateway {
	if baseURL != "" {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
	return g
}

// Authorize creates a manual-capture payment intent and returns its id.
func (g *StripeGateway) Authorize(ctx context.Context, amountCents int64, currency, paymentMethod string) (string, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.authorize")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("handyhub.amount_cents", amountCents),
		attribute.String("handyhub.currency", currency),
	)

	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", amountCents))
	form.Set("currency", strings.ToLower(currency))
	form.Set("payment_method", paymentMethod)
	form.Set("capture_method", "manual")
	form.Set("confirm", "true")

	var parsed stripePaymentIntent
	if err := g.post(ctx, "/v1/payment_intents", form, "", &parsed); err != nil {
		return "", fmt.Errorf("payments: authorize: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("payments: stripe response missing intent id")
	}
	return parsed.ID, nil
}

// Capture captures previously-authorized funds. The idempotency key is sent
// in the Idempotency-Key header so a replay of the same settlement attempt
// returns the original result instead of charging twice.
func (g *StripeGateway) Capture(ctx context.Context, intentID string, amountCents int64, idempotencyKey string) (*CaptureResult, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.capture")
	defer span.End()
	span.SetAttributes(
		attribute.String("handyhub.payment_intent_id", intentID),
		attribute.Int64("handyhub.amount_cents", amountCents),
	)

	form := url.Values{}
	form.Set("amount_to_capture", fmt.Sprintf("%d", amountCents))

	path := fmt.Sprintf("/v1/payment_intents/%s/capture", intentID)
	var parsed stripePaymentIntent
	if err := g.post(ctx, path, form, idempotencyKey, &parsed); err != nil {
		// A repeated capture of the same intent is benign under the
		// idempotency key; everything else is a retryable failure.
		if strings.Contains(err.Error(), "already been captured") {
			g.logger.Warn("stripe intent already captured", "payment_intent_id", intentID)
			return &CaptureResult{AmountReceived: amountCents, Status: "succeeded", AlreadyCaptured: true}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	result := &CaptureResult{
		AmountReceived:  parsed.AmountReceived,
		Status:          parsed.Status,
		AlreadyCaptured: false,
	}
	if result.AmountReceived == 0 {
		result.AmountReceived = amountCents
	}
	return result, nil
}

func (g *StripeGateway) post(ctx context.Context, path string, form url.Values, idempotencyKey string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("payments: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", g.apiVersion)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		g.logger.Error("stripe api error", "path", path, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("stripe api status %d: %s", resp.StatusCode, stripeErrorMessage(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("payments: stripe decode: %w", err)
	}
	return nil
}

// stripePaymentIntent is the subset of Stripe's PaymentIntent we need.
type stripePaymentIntent struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	AmountReceived int64  `json:"amount_received"`
}

func stripeErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(body)
}
