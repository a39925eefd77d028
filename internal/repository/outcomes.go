package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/pkg/cache"
	pkgkafka "github.com/lian220/quintiq-backend/pkg/kafka"
	applogger "github.com/lian220/quintiq-backend/pkg/logger"
)

// EventProducer is the subset of the Kafka producer used for events.
type EventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

var _ EventProducer = (*pkgkafka.Producer)(nil)

// KafkaEventPublisher writes each outcome as an event envelope keyed by request id.
type KafkaEventPublisher struct {
	producer EventProducer
	topic    string
}

func NewKafkaEventPublisher(producer EventProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishOutcome(ctx context.Context, outcome models.PipelineOutcome) error {
	ev := models.NewEvent(outcome)
	if err := p.producer.Publish(ctx, p.topic, []byte(outcome.RequestID), ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.EventType, err)
	}
	return nil
}

const outcomeKeyPrefix = "outcome:last"

// OutcomeCache keeps the last outcome per request kind for the status surface.
type OutcomeCache struct {
	cache cache.Service
	ttl   time.Duration
}

// NewOutcomeCache stores outcomes for ttl; zero keeps them until evicted.
func NewOutcomeCache(c cache.Service, ttl time.Duration) *OutcomeCache {
	return &OutcomeCache{cache: c, ttl: ttl}
}

func (o *OutcomeCache) PublishOutcome(ctx context.Context, outcome models.PipelineOutcome) error {
	return o.cache.Set(ctx, cache.GenerateKey(outcomeKeyPrefix, string(outcome.Kind)), outcome, o.ttl)
}

func (o *OutcomeCache) LastOutcomes(ctx context.Context) (map[models.RequestKind]models.PipelineOutcome, error) {
	out := make(map[models.RequestKind]models.PipelineOutcome, len(models.RequestKinds))
	for _, kind := range models.RequestKinds {
		var oc models.PipelineOutcome
		err := o.cache.Get(ctx, cache.GenerateKey(outcomeKeyPrefix, string(kind)), &oc)
		if errors.Is(err, cache.ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("last outcome %s: %w", kind, err)
		}
		out[kind] = oc
	}
	return out, nil
}

// MultiPublisher fans an outcome out to every sink. A failing sink is logged
// and does not stop the others; the first error is returned.
type MultiPublisher struct {
	sinks []domrepo.OutcomePublisher
	l     *applogger.Logger
}

func NewMultiPublisher(l *applogger.Logger, sinks ...domrepo.OutcomePublisher) *MultiPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &MultiPublisher{sinks: sinks, l: l}
}

func (m *MultiPublisher) PublishOutcome(ctx context.Context, outcome models.PipelineOutcome) error {
	var first error
	for _, s := range m.sinks {
		if s == nil {
			continue
		}
		if err := s.PublishOutcome(ctx, outcome); err != nil {
			m.l.Error("outcome sink failed",
				applogger.String("request_id", outcome.RequestID),
				applogger.String("kind", string(outcome.Kind)),
				applogger.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
