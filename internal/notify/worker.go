package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/handyhub/platform/pkg/logging"
)

const (
	defaultWorkerCount  = 2
	defaultWaitSeconds  = 2
	defaultBatchSize    = 5
	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10
	deleteTimeout       = 5 * time.Second
)

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the SQS long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// Worker consumes queued notifications and delivers them through the
// configured email and push senders.
type Worker struct {
	queue  queueClient
	email  EmailSender
	push   PushSender
	logger *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

func NewWorker(queue queueClient, email EmailSender, push PushSender, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		queue:  queue,
		email:  email,
		push:   push,
		logger: logger.Component("notify-worker"),
		cfg:    cfg,
	}
}

// Start launches the consumer goroutines. They exit when ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all consumer goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("notify worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("notify worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive notifications", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

// handleMessage delivers one notification. Undeliverable messages (bad JSON,
// unknown channel) are deleted rather than redelivered forever; transient
// send failures leave the message on the queue for the next poll.
func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var n Notification
	if err := json.Unmarshal([]byte(msg.Body), &n); err != nil {
		w.logger.Error("dropping undecodable notification", "error", err, "message_id", msg.ID)
		w.deleteMessage(msg)
		return
	}

	if err := w.deliver(ctx, n); err != nil {
		w.logger.Error("notification delivery failed", "error", err, "id", n.ID, "channel", n.Channel)
		return
	}

	w.deleteMessage(msg)
}

func (w *Worker) deliver(ctx context.Context, n Notification) error {
	switch n.Channel {
	case ChannelEmail:
		if w.email == nil {
			w.logger.Warn("email sender not configured, dropping notification", "id", n.ID)
			return nil
		}
		return w.email.Send(ctx, EmailMessage{
			To:      n.Email,
			ToName:  n.RecipientName,
			Subject: n.Subject,
			Body:    n.Body,
			HTML:    n.HTML,
		})
	case ChannelPush:
		if w.push == nil {
			w.logger.Warn("push sender not configured, dropping notification", "id", n.ID)
			return nil
		}
		return w.push.Send(ctx, PushMessage{
			UserID: n.UserID,
			Title:  n.Subject,
			Body:   n.Body,
		})
	default:
		w.logger.Error("unknown notification channel", "id", n.ID, "channel", n.Channel)
		return nil
	}
}

func (w *Worker) deleteMessage(msg queueMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Warn("failed to delete queue message", "error", err, "message_id", msg.ID)
	}
}

