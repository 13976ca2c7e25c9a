package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type captureQueue struct {
	sent    []string
	sendErr error
}

func (q *captureQueue) Send(_ context.Context, body string) error {
	if q.sendErr != nil {
		return q.sendErr
	}
	q.sent = append(q.sent, body)
	return nil
}

func (q *captureQueue) Receive(context.Context, int, int) ([]queueMessage, error) {
	return nil, nil
}

func (q *captureQueue) Delete(context.Context, string) error { return nil }

func TestPublisherAssignsID(t *testing.T) {
	queue := &captureQueue{}
	p := NewPublisher(queue, nil)

	err := p.Publish(context.Background(), Notification{
		Channel: ChannelPush,
		UserID:  "user-1",
		Subject: "hi",
		Body:    "body",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(queue.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(queue.sent))
	}

	var n Notification
	if err := json.Unmarshal([]byte(queue.sent[0]), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.ID == "" {
		t.Fatal("expected generated id")
	}
	if n.Channel != ChannelPush || n.UserID != "user-1" {
		t.Fatalf("unexpected payload: %+v", n)
	}
}

func TestPublisherPropagatesQueueError(t *testing.T) {
	queue := &captureQueue{sendErr: errors.New("queue full")}
	p := NewPublisher(queue, nil)

	if err := p.Publish(context.Background(), Notification{Channel: ChannelEmail, Body: "x"}); err == nil {
		t.Fatal("expected enqueue error")
	}
}

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(4)

	if err := q.Send(context.Background(), "one"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := q.Send(context.Background(), "two"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs, err := q.Receive(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Body != "one" || msgs[1].Body != "two" {
		t.Fatalf("unexpected bodies: %+v", msgs)
	}
	if msgs[0].ReceiptHandle == "" {
		t.Fatal("expected receipt handle")
	}
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	q := NewMemoryQueue(1)

	msgs, err := q.Receive(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if msgs != nil {
		t.Fatalf("expected empty poll, got %+v", msgs)
	}
}
