package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Notification channels.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// Notification is one queued delivery. Email notifications carry the
// recipient address; push notifications carry the user id whose device
// tokens the worker resolves at send time.
type Notification struct {
	ID            string `json:"id"`
	Channel       string `json:"channel"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	RecipientName string `json:"recipient_name,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Body          string `json:"body"`
	HTML          string `json:"html,omitempty"`
}

func encodeNotification(n Notification) (Notification, string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	body, err := json.Marshal(n)
	if err != nil {
		return Notification{}, "", fmt.Errorf("notify: failed to encode notification: %w", err)
	}
	return n, string(body), nil
}
