package backgroundcheck

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/handyhub/platform/pkg/logging"
)

var checkrTracer = otel.Tracer("handyhub.internal.backgroundcheck.checkr")

// CheckrClient talks to the Checkr API and verifies Checkr webhooks.
type CheckrClient struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

func NewCheckrClient(apiKey, webhookSecret string, logger *logging.Logger) *CheckrClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckrClient{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       "https://api.checkr.com",
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
	}
}

// WithBaseURL overrides the API base URL, used in tests.
func (c *CheckrClient) WithBaseURL(url string) *CheckrClient {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

func (c *CheckrClient) Name() string { return "checkr" }

func (c *CheckrClient) SignatureHeader() string { return "X-Checkr-Signature" }

// checkrWebhook is the relevant slice of a Checkr webhook envelope.
type checkrWebhook struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// checkrEventTypes maps Checkr's report events onto the internal vocabulary.
var checkrEventTypes = map[string]string{
	"report.created":   EventCheckCreated,
	"report.completed": EventCheckCompleted,
	"report.updated":   EventCheckUpdated,
	"report.disputed":  EventCheckUpdated,
	"report.canceled":  EventCheckFailed,
}

// VerifyAndParse validates the HMAC-SHA256 signature of the raw body and
// normalizes the payload.
func (c *CheckrClient) VerifyAndParse(rawBody []byte, signature string) (*Event, error) {
	if !verifyHMAC(rawBody, signature, c.webhookSecret) {
		return nil, ErrSignatureInvalid
	}

	var payload checkrWebhook
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("checkr: parse webhook: %w", err)
	}
	if payload.Data.Object.ID == "" {
		return nil, fmt.Errorf("checkr: webhook missing report id")
	}

	eventType, ok := checkrEventTypes[payload.Type]
	if !ok {
		// Unknown types are passed through verbatim; the processor logs
		// and acks them.
		eventType = payload.Type
	}

	return &Event{
		Type:     eventType,
		CheckID:  payload.Data.Object.ID,
		Provider: c.Name(),
		Data:     json.RawMessage(rawBody),
	}, nil
}

type checkrReport struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Assessment  string     `json:"assessment"`
	CompletedAt *time.Time `json:"completed_at"`
}

// GetCheckStatus fetches the authoritative report state from Checkr.
func (c *CheckrClient) GetCheckStatus(ctx context.Context, checkID string) (*CheckStatus, error) {
	ctx, span := checkrTracer.Start(ctx, "checkr.get_report")
	defer span.End()
	span.SetAttributes(attribute.String("checkr.report_id", checkID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reports/"+checkID, nil)
	if err != nil {
		return nil, fmt.Errorf("checkr: build request: %w", err)
	}
	// Checkr authenticates with the API key as the basic-auth username.
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkr: get report: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("checkr: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrCheckNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checkr: get report: status %d: %s", resp.StatusCode, string(body))
	}

	var report checkrReport
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("checkr: parse report: %w", err)
	}

	return &CheckStatus{
		Status:         report.Status,
		Recommendation: report.Assessment,
		RawData:        json.RawMessage(body),
		CompletedAt:    report.CompletedAt,
	}, nil
}

// verifyHMAC compares a hex-encoded HMAC-SHA256 signature against the raw
// body in constant time.
func verifyHMAC(rawBody []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

var _ Provider = (*CheckrClient)(nil)
