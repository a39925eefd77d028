package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type flakyHandler struct {
	failures int
	calls    int
	policy   *RetryPolicy
}

func (h *flakyHandler) Topic() string { return "analysis.technical.request" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

type policyHandler struct{ flakyHandler }

func (h *policyHandler) RetryPolicy() RetryPolicy { return *h.policy }

func newTestConsumer(t *testing.T, opts ...ConsumerOption) *Consumer {
	t.Helper()
	c, err := NewConsumer(append([]ConsumerOption{WithConsumerBrokers([]string{"localhost:9092"})}, opts...)...)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return c
}

func TestProcessDefaultPolicyDoesNotRetry(t *testing.T) {
	c := newTestConsumer(t)
	h := &flakyHandler{failures: 1}
	err := c.process(h, &message{topic: h.Topic()})
	if err == nil {
		t.Fatalf("expected failure to surface")
	}
	if h.calls != 1 {
		t.Fatalf("calls = %d, want 1", h.calls)
	}
}

func TestProcessHandlerPolicyRetries(t *testing.T) {
	c := newTestConsumer(t)
	h := &policyHandler{flakyHandler{failures: 2, policy: &RetryPolicy{MaxAttempts: 3, BackoffMin: time.Millisecond, BackoffMax: 2 * time.Millisecond}}}
	if err := c.process(h, &message{topic: h.Topic()}); err != nil {
		t.Fatalf("expected success on third attempt: %v", err)
	}
	if h.calls != 3 {
		t.Fatalf("calls = %d, want 3", h.calls)
	}
}

type panicHandler struct{}

func (panicHandler) Topic() string                        { return "t" }
func (panicHandler) Handle(context.Context, []byte) error { panic("boom") }

func TestProcessRecoversPanics(t *testing.T) {
	c := newTestConsumer(t)
	if err := c.process(panicHandler{}, &message{topic: "t"}); err == nil {
		t.Fatalf("expected panic to become an error")
	}
}

func TestHookChainStopsOnBeforeError(t *testing.T) {
	afterCalled := false
	chain := NewHookChain(
		HookFuncs{Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
			return ctx, km, d, errors.New("reject")
		}},
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { afterCalled = true }},
	)
	c := newTestConsumer(t)
	c.WithConsumerHook(chain)
	h := &flakyHandler{}
	if err := c.process(h, &message{topic: h.Topic()}); err == nil {
		t.Fatalf("expected hook error")
	}
	if h.calls != 0 || afterCalled {
		t.Fatalf("handler or after hook ran: calls=%d after=%v", h.calls, afterCalled)
	}
}

func TestTracingHookExtractsHeader(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx, _, _, err := TracingHook().BeforeHandle(context.Background(), "t", km, nil)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	if TraceID(ctx) != "abc" {
		t.Fatalf("trace id = %q", TraceID(ctx))
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	min, max := 10*time.Millisecond, 80*time.Millisecond
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(min, max, attempt)
		if d <= 0 || d > max {
			t.Fatalf("attempt %d: backoff %v out of (0, %v]", attempt, d, max)
		}
	}
}
