package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/handyhub/platform/pkg/logging"
)

// PushMessage is one push notification addressed to a user. The sender
// resolves the user's device tokens.
type PushMessage struct {
	UserID string
	Title  string
	Body   string
}

// PushSender delivers push notifications.
type PushSender interface {
	Send(ctx context.Context, msg PushMessage) error
}

type deviceTokens interface {
	Tokens(ctx context.Context, userID string) ([]string, error)
	Remove(ctx context.Context, userID, token string) error
}

// HTTPPushSender posts notifications to an internal push gateway, one
// request per registered device token.
type HTTPPushSender struct {
	gatewayURL string
	devices    deviceTokens
	httpClient *http.Client
	logger     *logging.Logger
}

func NewHTTPPushSender(gatewayURL string, devices deviceTokens, logger *logging.Logger) *HTTPPushSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPPushSender{
		gatewayURL: gatewayURL,
		devices:    devices,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type pushRequest struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send pushes the message to every device the user has registered. A token
// the gateway reports as gone is dropped from the store; other per-device
// failures are logged and the remaining devices still get the push.
func (s *HTTPPushSender) Send(ctx context.Context, msg PushMessage) error {
	tokens, err := s.devices.Tokens(ctx, msg.UserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		s.logger.Debug("no registered devices for push", "user_id", msg.UserID)
		return nil
	}

	var failures int
	for _, token := range tokens {
		if err := s.sendOne(ctx, token, msg); err != nil {
			failures++
			s.logger.Warn("push delivery failed", "user_id", msg.UserID, "error", err)
		}
	}
	if failures == len(tokens) {
		return fmt.Errorf("notify: push failed for all %d devices of user %s", len(tokens), msg.UserID)
	}
	return nil
}

func (s *HTTPPushSender) sendOne(ctx context.Context, token string, msg PushMessage) error {
	payload, err := json.Marshal(pushRequest{Token: token, Title: msg.Title, Body: msg.Body})
	if err != nil {
		return fmt.Errorf("notify: encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL+"/v1/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: push gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		if err := s.devices.Remove(ctx, msg.UserID, token); err != nil {
			s.logger.Warn("failed to drop dead device token", "user_id", msg.UserID, "error", err)
		}
		return nil
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("notify: push gateway returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// StubPushSender is a no-op sender for testing or when push is disabled.
type StubPushSender struct {
	logger *logging.Logger
}

func NewStubPushSender(logger *logging.Logger) *StubPushSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubPushSender{logger: logger}
}

func (s *StubPushSender) Send(ctx context.Context, msg PushMessage) error {
	s.logger.Info("stub push sender: would send push", "user_id", msg.UserID, "title", msg.Title)
	return nil
}

var (
	_ PushSender = (*HTTPPushSender)(nil)
	_ PushSender = (*StubPushSender)(nil)
)
