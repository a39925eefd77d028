package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/pkg/config"
	pkgkafka "github.com/lian220/quintiq-backend/pkg/kafka"
)

// KafkaRequestHandler turns messages on one request topic into dispatches.
type KafkaRequestHandler struct {
	topic      string
	kind       models.RequestKind
	dispatcher *Dispatcher
	policy     config.RetryPolicy
}

func NewKafkaRequestHandler(topic string, kind models.RequestKind, d *Dispatcher, policy config.RetryPolicy) *KafkaRequestHandler {
	return &KafkaRequestHandler{topic: topic, kind: kind, dispatcher: d, policy: policy}
}

// NewKafkaRequestHandlers builds one handler per configured request topic.
func NewKafkaRequestHandlers(cfg *config.Config, d *Dispatcher) []*KafkaRequestHandler {
	topics := RequestTopics(cfg)
	out := make([]*KafkaRequestHandler, 0, len(topics))
	for _, kind := range models.RequestKinds {
		topic, ok := topics[kind]
		if !ok || topic == "" {
			continue
		}
		out = append(out, NewKafkaRequestHandler(topic, kind, d, cfg.RetryFor(string(kind))))
	}
	return out
}

// RequestTopics maps each request kind to its inbound topic.
func RequestTopics(cfg *config.Config) map[models.RequestKind]string {
	return map[models.RequestKind]string{
		models.KindAggregate: cfg.Kafka.Topics.Aggregate,
		models.KindTechnical: cfg.Kafka.Topics.Technical,
		models.KindSentiment: cfg.Kafka.Topics.Sentiment,
		models.KindCombined:  cfg.Kafka.Topics.Combined,
	}
}

func (h *KafkaRequestHandler) Topic() string { return h.topic }

func (h *KafkaRequestHandler) RetryPolicy() pkgkafka.RetryPolicy {
	if !h.policy.Retry {
		return pkgkafka.RetryPolicy{MaxAttempts: 1}
	}
	return pkgkafka.RetryPolicy{
		MaxAttempts: h.policy.MaxAttempts,
		BackoffMin:  h.policy.BackoffMin,
		BackoffMax:  h.policy.BackoffMax,
	}
}

// Handle body schema: {"payload": {requestId, threadTs, source, targetDate, ...}} or the same fields flat.
func (h *KafkaRequestHandler) Handle(ctx context.Context, b []byte) error {
	req, err := DecodeRequest(b, h.kind)
	if err != nil {
		h.dispatcher.Reject(ctx, req, err)
		return nil
	}
	_, err = h.dispatcher.Dispatch(ctx, req)
	return err
}

// DecodeRequest parses a bus message. On failure the returned request still
// carries the kind so a rejection can be reported.
func DecodeRequest(b []byte, kind models.RequestKind) (models.PipelineRequest, error) {
	fallback := models.PipelineRequest{RequestID: "unknown", Kind: kind, Params: models.RequestParams{Source: "kafka"}}

	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fallback, fmt.Errorf("%w: body is not a JSON object", models.ErrInvalidPayload)
	}
	var msg models.RequestMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return fallback, fmt.Errorf("%w: %v", models.ErrInvalidPayload, err)
	}
	return msg.ToRequest(kind), nil
}

var _ pkgkafka.RetryingHandler = (*KafkaRequestHandler)(nil)
