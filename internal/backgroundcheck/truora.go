package backgroundcheck

import (
	"context"
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

var truoraTracer = otel.Tracer("handyhub.internal.backgroundcheck.truora")

// TruoraClient talks to the Truora API and verifies Truora webhooks. Used
// for professionals onboarding in LATAM markets.
type TruoraClient struct {
	apiKey        string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

func NewTruoraClient(apiKey, webhookSecret string, logger *logging.Logger) *TruoraClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &TruoraClient{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		baseURL:       "https://api.checks.truora.com",
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
	}
}

// WithBaseURL overrides the API base URL, used in tests.
func (c *TruoraClient) WithBaseURL(url string) *TruoraClient {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

func (c *TruoraClient) Name() string { return "truora" }

func (c *TruoraClient) SignatureHeader() string { return "X-Truora-Signature" }

type truoraWebhook struct {
	EventType string `json:"event_type"`
	CheckID   string `json:"check_id"`
}

var truoraEventTypes = map[string]string{
	"check_created":     EventCheckCreated,
	"check_completed":   EventCheckCompleted,
	"check_in_progress": EventCheckUpdated,
	"check_failed":      EventCheckFailed,
}

func (c *TruoraClient) VerifyAndParse(rawBody []byte, signature string) (*Event, error) {
	if !verifyHMAC(rawBody, signature, c.webhookSecret) {
		return nil, ErrSignatureInvalid
	}

	var payload truoraWebhook
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("truora: parse webhook: %w", err)
	}
	if payload.CheckID == "" {
		return nil, fmt.Errorf("truora: webhook missing check_id")
	}

	eventType, ok := truoraEventTypes[payload.EventType]
	if !ok {
		eventType = payload.EventType
	}

	return &Event{
		Type:     eventType,
		CheckID:  payload.CheckID,
		Provider: c.Name(),
		Data:     json.RawMessage(rawBody),
	}, nil
}

type truoraCheck struct {
	Check struct {
		CheckID        string     `json:"check_id"`
		Status         string     `json:"status"`
		Recommendation string     `json:"recommendation"`
		FinishedAt     *time.Time `json:"finished_at"`
	} `json:"check"`
}

func (c *TruoraClient) GetCheckStatus(ctx context.Context, checkID string) (*CheckStatus, error) {
	ctx, span := truoraTracer.Start(ctx, "truora.get_check")
	defer span.End()
	span.SetAttributes(attribute.String("truora.check_id", checkID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/checks/"+checkID, nil)
	if err != nil {
		return nil, fmt.Errorf("truora: build request: %w", err)
	}
	req.Header.Set("Truora-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("truora: get check: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("truora: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrCheckNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("truora: get check: status %d: %s", resp.StatusCode, string(body))
	}

	var payload truoraCheck
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("truora: parse check: %w", err)
	}

	return &CheckStatus{
		Status:         payload.Check.Status,
		Recommendation: payload.Check.Recommendation,
		RawData:        json.RawMessage(body),
		CompletedAt:    payload.Check.FinishedAt,
	}, nil
}

var _ Provider = (*TruoraClient)(nil)
