package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type memCounter struct {
	counts map[string]int64
	fail   bool
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[string]int64{}}
}

func (c *memCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	if c.fail {
		return 0, errors.New("counter store unavailable")
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *memCounter) Reset(ctx context.Context, key string) error {
	delete(c.counts, key)
	return nil
}

type recordingDLQ struct {
	parked []string
	fail   bool
}

func (d *recordingDLQ) PublishToDLQ(routingKey string, payload []byte, originalError string) error {
	if d.fail {
		return errors.New("channel closed")
	}
	d.parked = append(d.parked, routingKey)
	return nil
}

func passThrough(err error) func(ctx context.Context, routingKey string, data json.RawMessage) error {
	return func(ctx context.Context, routingKey string, data json.RawMessage) error {
		return err
	}
}

func TestRetryCapSuccessPassesThrough(t *testing.T) {
	counter := newMemCounter()
	dlq := &recordingDLQ{}
	h := WithRetryCap(passThrough(nil), counter, dlq, zap.NewNop())

	if err := h(context.Background(), "deals.insert", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(counter.counts) != 0 {
		t.Error("expected no retry counting on success")
	}
	if len(dlq.parked) != 0 {
		t.Error("expected nothing parked on success")
	}
}

func TestRetryableErrorRequeuesUntilCap(t *testing.T) {
	counter := newMemCounter()
	dlq := &recordingDLQ{}
	h := WithRetryCap(passThrough(errors.New("db connection reset")), counter, dlq, zap.NewNop())

	payload := json.RawMessage(`{"record_id":"d1"}`)
	for i := 1; i <= maxDeliveryRetries; i++ {
		if err := h(context.Background(), "deals.update", payload); err == nil {
			t.Fatalf("delivery %d: expected error to requeue", i)
		}
	}
	if len(dlq.parked) != 0 {
		t.Fatalf("parked before the cap: %v", dlq.parked)
	}

	// The delivery past the cap is parked and acked.
	if err := h(context.Background(), "deals.update", payload); err != nil {
		t.Fatalf("delivery past cap: %v", err)
	}
	if len(dlq.parked) != 1 || dlq.parked[0] != "deals.update" {
		t.Fatalf("parked = %v, want one deals.update", dlq.parked)
	}
	if len(counter.counts) != 0 {
		t.Error("expected retry count reset after parking")
	}
}

func TestNonRetryableErrorParksImmediately(t *testing.T) {
	counter := newMemCounter()
	dlq := &recordingDLQ{}
	h := WithRetryCap(passThrough(errors.New("record corrupt")), counter, dlq, zap.NewNop())

	if err := h(context.Background(), "contacts.insert", json.RawMessage(`{}`)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(dlq.parked) != 1 {
		t.Fatalf("parked = %v, want one entry", dlq.parked)
	}
}

func TestCounterFailureKeepsRequeueing(t *testing.T) {
	counter := &memCounter{fail: true}
	dlq := &recordingDLQ{}
	h := WithRetryCap(passThrough(errors.New("db connection reset")), counter, dlq, zap.NewNop())

	if err := h(context.Background(), "deals.insert", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error to propagate when the counter is down")
	}
	if len(dlq.parked) != 0 {
		t.Error("expected nothing parked while the counter is down")
	}
}

func TestDLQPublishFailureRequeues(t *testing.T) {
	counter := newMemCounter()
	dlq := &recordingDLQ{fail: true}
	h := WithRetryCap(passThrough(errors.New("record corrupt")), counter, dlq, zap.NewNop())

	if err := h(context.Background(), "deals.insert", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected error when the event cannot be parked")
	}
}
