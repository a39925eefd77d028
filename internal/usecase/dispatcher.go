package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/pkg/config"
	"github.com/lian220/quintiq-backend/pkg/logger"
)

// Result is what a pipeline hands back to the dispatcher: the outcome payload
// and a human-readable summary for the success notification.
type Result struct {
	Payload interface{}
	Summary string
}

type Pipeline func(ctx context.Context, req models.PipelineRequest) (Result, error)

// RetryLookup resolves the retry policy of a request kind.
type RetryLookup func(kind string) config.RetryPolicy

// Dispatcher runs one pipeline per request and always emits exactly one
// outcome. Failures are returned to the caller only for kinds whose retry
// policy allows it and only when the error is not permanent.
type Dispatcher struct {
	pipelines map[models.RequestKind]Pipeline
	notifier  domrepo.Notifier
	publisher domrepo.OutcomePublisher
	retry     RetryLookup
	metrics   domrepo.Metrics
	l         *logger.Logger
	now       func() time.Time
}

func NewDispatcher(agg *Aggregator, analyzer *Analyzer, scorer *Scorer, combined *Combined,
	notifier domrepo.Notifier, publisher domrepo.OutcomePublisher, retry RetryLookup,
	metrics domrepo.Metrics, l *logger.Logger) *Dispatcher {
	d := newDispatcher(notifier, publisher, retry, metrics, l)
	d.Register(models.KindAggregate, d.aggregatePipeline(agg))
	d.Register(models.KindTechnical, technicalPipeline(analyzer))
	d.Register(models.KindSentiment, sentimentPipeline(scorer))
	d.Register(models.KindCombined, combinedPipeline(combined))
	return d
}

func newDispatcher(notifier domrepo.Notifier, publisher domrepo.OutcomePublisher, retry RetryLookup,
	metrics domrepo.Metrics, l *logger.Logger) *Dispatcher {
	if retry == nil {
		retry = func(string) config.RetryPolicy { return config.RetryPolicy{MaxAttempts: 1} }
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Dispatcher{
		pipelines: make(map[models.RequestKind]Pipeline),
		notifier:  notifier,
		publisher: publisher,
		retry:     retry,
		metrics:   orNopMetrics(metrics),
		l:         orNopLogger(l),
		now:       time.Now,
	}
}

// RetryPolicy returns the policy configured for kind.
func (d *Dispatcher) RetryPolicy(kind models.RequestKind) config.RetryPolicy {
	return d.retry(string(kind))
}

// Register binds a pipeline to kind, replacing any previous one.
func (d *Dispatcher) Register(kind models.RequestKind, p Pipeline) {
	d.pipelines[kind] = p
}

// Dispatch runs req to completion and returns its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.PipelineRequest) (models.PipelineOutcome, error) {
	log := d.l.With(logger.String("request_id", req.RequestID), logger.String("kind", string(req.Kind)))
	start := d.now()

	pipeline, ok := d.pipelines[req.Kind]
	if !ok {
		err := fmt.Errorf("%w: %q", models.ErrUnknownRequestKind, req.Kind)
		log.Warn("request rejected", logger.Error(err))
		return d.finish(ctx, log, req, start, Result{}, err), nil
	}

	log.Info("pipeline started", logger.String("source", req.Params.Source), logger.String("target_date", req.Params.TargetDate))
	if err := d.notifier.NotifyStart(ctx, req, startDetail(req)); err != nil {
		log.Warn("start notification failed", logger.Error(err))
	}

	res, err := d.run(ctx, pipeline, req)
	if err == nil {
		if nerr := d.notifier.NotifySuccess(ctx, req, res.Summary); nerr != nil {
			log.Warn("success notification failed", logger.Error(nerr))
		}
		return d.finish(ctx, log, req, start, res, nil), nil
	}

	if nerr := d.notifier.NotifyError(ctx, req, err.Error()); nerr != nil {
		log.Warn("error notification failed", logger.Error(nerr))
	}
	outcome := d.finish(ctx, log, req, start, Result{}, err)
	if d.retry(string(req.Kind)).Retry && !models.IsPermanent(err) {
		return outcome, err
	}
	return outcome, nil
}

// Reject emits a failed outcome for a request that never reached a pipeline,
// such as an unreadable message body.
func (d *Dispatcher) Reject(ctx context.Context, req models.PipelineRequest, cause error) models.PipelineOutcome {
	log := d.l.With(logger.String("request_id", req.RequestID), logger.String("kind", string(req.Kind)))
	log.Warn("request rejected", logger.Error(cause))
	return d.finish(ctx, log, req, d.now(), Result{}, cause)
}

func (d *Dispatcher) run(ctx context.Context, p Pipeline, req models.PipelineRequest) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return p(ctx, req)
}

// finish builds and publishes the terminal outcome.
func (d *Dispatcher) finish(ctx context.Context, log *logger.Logger, req models.PipelineRequest, start time.Time, res Result, err error) models.PipelineOutcome {
	elapsed := d.now().Sub(start)
	outcome := models.PipelineOutcome{
		RequestID:       req.RequestID,
		Kind:            req.Kind,
		Status:          models.StatusSuccess,
		DurationSeconds: elapsed.Seconds(),
		Payload:         res.Payload,
		CompletedAt:     d.now().UTC(),
	}
	if err != nil {
		outcome.Status = models.StatusFailed
		outcome.Error = err.Error()
		outcome.ErrorKind = models.ErrorKind(err)
		d.metrics.RecordError(outcome.ErrorKind)
		log.Error("pipeline failed", logger.Error(err), logger.String("error_kind", outcome.ErrorKind), logger.Duration("duration_ms", elapsed))
	} else {
		log.Info("pipeline finished", logger.Duration("duration_ms", elapsed), logger.Any("summary", res.Payload))
	}
	d.metrics.RecordPipelineRun(string(req.Kind), string(outcome.Status), outcome.DurationSeconds)

	if d.publisher != nil {
		if perr := d.publisher.PublishOutcome(ctx, outcome); perr != nil {
			log.Error("outcome publish failed", logger.Error(perr))
		}
	}
	return outcome
}

func startDetail(req models.PipelineRequest) string {
	parts := []string{"source: " + orDefault(req.Params.Source, "unknown")}
	if req.Params.TargetDate != "" {
		parts = append(parts, "date: "+req.Params.TargetDate)
	}
	if len(req.Params.DataTypes) > 0 {
		parts = append(parts, "data types: "+strings.Join(req.Params.DataTypes, ","))
	}
	return strings.Join(parts, ", ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (d *Dispatcher) aggregatePipeline(agg *Aggregator) Pipeline {
	return func(ctx context.Context, req models.PipelineRequest) (Result, error) {
		start := d.now()
		r, err := agg.Aggregate(ctx, req.Params.TargetDate)
		if err != nil {
			return Result{}, err
		}
		return Result{Payload: r, Summary: aggregationText(r, d.now().Sub(start).Seconds())}, nil
	}
}

func technicalPipeline(a *Analyzer) Pipeline {
	return func(ctx context.Context, req models.PipelineRequest) (Result, error) {
		verdicts, err := a.Analyze(ctx, req.Params.TargetDate)
		if err != nil {
			return Result{}, err
		}
		s := summarizeTechnical(verdicts)
		return Result{Payload: s, Summary: s.Text()}, nil
	}
}

func sentimentPipeline(s *Scorer) Pipeline {
	return func(ctx context.Context, req models.PipelineRequest) (Result, error) {
		scores, err := s.Score(ctx, req.Params.TargetDate)
		if err != nil {
			return Result{}, err
		}
		sum := summarizeSentiment(scores)
		return Result{Payload: sum, Summary: sum.Text()}, nil
	}
}

func combinedPipeline(c *Combined) Pipeline {
	return func(ctx context.Context, req models.PipelineRequest) (Result, error) {
		s, err := c.Run(ctx, req.Params.TargetDate)
		if err != nil {
			return Result{}, err
		}
		return Result{Payload: s, Summary: s.Text()}, nil
	}
}
