package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/pkg/logger"
	"github.com/lian220/quintiq-backend/pkg/queue"
)

// RequestDispatcher runs a request in process.
type RequestDispatcher interface {
	Dispatch(ctx context.Context, req models.PipelineRequest) (models.PipelineOutcome, error)
}

// Scheduler submits requests on cron specs. With a queue the request is
// enqueued so a single replica picks it up; otherwise it is dispatched directly.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher RequestDispatcher
	queue      queue.Publisher
	l          *logger.Logger
	entries    int
}

// NewScheduler validates specs (kind -> cron spec). q may be nil.
func NewScheduler(specs map[string]string, d RequestDispatcher, q queue.Publisher, l *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		dispatcher: d,
		queue:      q,
		l:          orNopLogger(l),
	}
	for name, spec := range specs {
		kind, ok := models.ParseRequestKind(name)
		if !ok {
			return nil, fmt.Errorf("schedule %q: %w", name, models.ErrUnknownRequestKind)
		}
		if spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(spec, func() { s.Submit(context.Background(), kind) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", kind, spec, err)
		}
		s.entries++
	}
	return s, nil
}

// Entries is the number of scheduled kinds.
func (s *Scheduler) Entries() int { return s.entries }

// Submit enqueues or dispatches one scheduled request for kind.
func (s *Scheduler) Submit(ctx context.Context, kind models.RequestKind) {
	req := models.NewPipelineRequest(kind, "scheduler", "")
	log := s.l.With(logger.String("request_id", req.RequestID), logger.String("kind", string(kind)))

	if s.queue != nil {
		if err := s.queue.Enqueue(ctx, JobType(kind), req); err != nil {
			log.Error("scheduled enqueue failed", logger.Error(err))
			return
		}
		log.Info("scheduled request enqueued")
		return
	}
	outcome, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		log.Warn("scheduled request failed", logger.Error(err))
		return
	}
	log.Info("scheduled request done", logger.String("status", string(outcome.Status)))
}

func (s *Scheduler) Start() error {
	s.cron.Start()
	s.l.Info("scheduler started", logger.Int("entries", s.entries))
	return nil
}

// Stop waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
