package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/pkg/config"
)

func TestDecodeRequestShapes(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		id     string
		thread string
		date   string
		source string
	}{
		{"nested", `{"payload":{"requestId":"r1","threadTs":"1.2","targetDate":"2024-06-28"}}`, "r1", "1.2", "2024-06-28", "kafka"},
		{"flat", `{"requestId":"r2","source":"slack"}`, "r2", "", "", "slack"},
		{"missing id", `{"payload":{}}`, "unknown", "", "", "kafka"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tc.body), models.KindTechnical)
			if err != nil {
				t.Fatalf("DecodeRequest: %v", err)
			}
			if req.RequestID != tc.id || req.CorrelationToken != tc.thread || req.Params.TargetDate != tc.date || req.Params.Source != tc.source {
				t.Fatalf("unexpected request %+v", req)
			}
			if req.Kind != models.KindTechnical {
				t.Fatalf("kind not applied: %s", req.Kind)
			}
		})
	}
}

func TestDecodeRequestRejectsNonObjects(t *testing.T) {
	for _, body := range []string{``, `[]`, `"x"`, `{"payload":`} {
		if _, err := DecodeRequest([]byte(body), models.KindAggregate); !errors.Is(err, models.ErrInvalidPayload) {
			t.Fatalf("%q: expected ErrInvalidPayload, got %v", body, err)
		}
	}
}

func TestKafkaHandlerRejectsBadBodyWithoutRetry(t *testing.T) {
	h := newHarness()
	handler := NewKafkaRequestHandler("economic.data.update.request", models.KindAggregate, h.d, defaultRetry("aggregate"))

	if err := handler.Handle(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("invalid payloads are permanent, got %v", err)
	}
	if len(h.pub.outcomes) != 1 || h.pub.outcomes[0].ErrorKind != "InvalidPayload" {
		t.Fatalf("expected one InvalidPayload outcome, got %+v", h.pub.outcomes)
	}
}

func TestKafkaHandlerRetryPolicy(t *testing.T) {
	h := newHarness()
	agg := NewKafkaRequestHandler("a", models.KindAggregate, h.d, config.RetryPolicy{Retry: true, MaxAttempts: 3, BackoffMin: time.Second})
	if p := agg.RetryPolicy(); p.MaxAttempts != 3 || p.BackoffMin != time.Second {
		t.Fatalf("unexpected policy %+v", p)
	}
	tech := NewKafkaRequestHandler("t", models.KindTechnical, h.d, config.RetryPolicy{MaxAttempts: 5})
	if p := tech.RetryPolicy(); p.MaxAttempts != 1 {
		t.Fatalf("non-retrying kinds get a single attempt, got %+v", p)
	}
}

func TestNewKafkaRequestHandlersUsesConfiguredTopics(t *testing.T) {
	cfg, err := config.Parse([]byte("environment: test\nkafka:\n  brokers: [\"k:9092\"]\nclickhouse:\n  host: ch\n"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	handlers := NewKafkaRequestHandlers(cfg, newHarness().d)
	if len(handlers) != 4 {
		t.Fatalf("expected 4 handlers, got %d", len(handlers))
	}
	if handlers[0].Topic() != "economic.data.update.request" || handlers[0].RetryPolicy().MaxAttempts != 3 {
		t.Fatalf("unexpected aggregate handler %s %+v", handlers[0].Topic(), handlers[0].RetryPolicy())
	}
}

type fakeQueue struct {
	types    []string
	payloads []interface{}
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	q.types = append(q.types, msgType)
	q.payloads = append(q.payloads, payload)
	return nil
}

func TestSchedulerEnqueuesWhenQueueEnabled(t *testing.T) {
	h := newHarness()
	q := &fakeQueue{}
	s, err := NewScheduler(map[string]string{"technical": "0 6 * * 1-5"}, h.d, q, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if s.Entries() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Entries())
	}

	s.Submit(context.Background(), models.KindTechnical)
	if len(q.types) != 1 || q.types[0] != "pipeline.technical" {
		t.Fatalf("unexpected enqueue %v", q.types)
	}
	req, ok := q.payloads[0].(models.PipelineRequest)
	if !ok || req.Params.Source != "scheduler" || req.RequestID == "" {
		t.Fatalf("unexpected payload %+v", q.payloads[0])
	}
	if len(h.pub.outcomes) != 0 {
		t.Fatalf("queued requests must not run in process")
	}
}

func TestSchedulerDispatchesWithoutQueue(t *testing.T) {
	h := newHarness()
	s, err := NewScheduler(nil, h.d, nil, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	s.Submit(context.Background(), models.KindSentiment)
	if len(h.pub.outcomes) != 1 || h.pub.outcomes[0].Status != models.StatusSuccess {
		t.Fatalf("expected one in-process outcome, got %+v", h.pub.outcomes)
	}
}

func TestSchedulerRejectsBadSpecs(t *testing.T) {
	h := newHarness()
	if _, err := NewScheduler(map[string]string{"rebalance": "@daily"}, h.d, nil, nil); !errors.Is(err, models.ErrUnknownRequestKind) {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
	if _, err := NewScheduler(map[string]string{"aggregate": "not a spec"}, h.d, nil, nil); err == nil {
		t.Fatalf("expected cron parse error")
	}
}

func TestPipelineJobRunsQueuedRequest(t *testing.T) {
	h := newHarness()
	jobs := NewPipelineJobs(h.d)
	var job *PipelineJob
	for _, j := range jobs {
		if j.Type() == JobType(models.KindSentiment) {
			job = j.(*PipelineJob)
		}
	}
	if job == nil {
		t.Fatalf("sentiment job not registered")
	}
	raw := []byte(`{"requestId":"q1","kind":"sentiment","params":{"source":"scheduler"}}`)
	if err := job.Handle(context.Background(), raw); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(h.pub.outcomes) != 1 || h.pub.outcomes[0].RequestID != "q1" {
		t.Fatalf("unexpected outcomes %+v", h.pub.outcomes)
	}
}

func TestPipelineJobRetryLimitFollowsPolicy(t *testing.T) {
	h := newHarness()
	limits := map[string]int{}
	for _, j := range NewPipelineJobs(h.d) {
		limits[j.Type()] = j.(*PipelineJob).RetryLimit()
	}
	if got := limits[JobType(models.KindAggregate)]; got != 2 {
		t.Fatalf("aggregate retry limit=%d want 2", got)
	}
	if got := limits[JobType(models.KindTechnical)]; got != 0 {
		t.Fatalf("technical retry limit=%d want 0", got)
	}
}
