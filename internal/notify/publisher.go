package notify

import (
	"context"
	"fmt"

	"github.com/handyhub/platform/pkg/logging"
)

// Publisher enqueues notifications for asynchronous delivery.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{
		queue:  queue,
		logger: logger,
	}
}

// Publish enqueues one notification.
func (p *Publisher) Publish(ctx context.Context, n Notification) error {
	if ctx == nil {
		ctx = context.Background()
	}

	n, body, err := encodeNotification(n)
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("notify: failed to enqueue notification: %w", err)
	}

	p.logger.Debug("notification enqueued", "id", n.ID, "channel", n.Channel)
	return nil
}
