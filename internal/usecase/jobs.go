package usecase

import (
	"context"
	"fmt"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/pkg/queue"
)

const jobTypePrefix = "pipeline."

// JobType is the queue message type for a request kind.
func JobType(kind models.RequestKind) string { return jobTypePrefix + string(kind) }

// PipelineJob runs queued requests of one kind through the dispatcher.
type PipelineJob struct {
	kind       models.RequestKind
	dispatcher *Dispatcher
}

func NewPipelineJobs(d *Dispatcher) []queue.Job {
	jobs := make([]queue.Job, 0, len(models.RequestKinds))
	for _, kind := range models.RequestKinds {
		jobs = append(jobs, &PipelineJob{kind: kind, dispatcher: d})
	}
	return jobs
}

func (j *PipelineJob) Name() string { return string(j.kind) + "-pipeline" }
func (j *PipelineJob) Type() string { return JobType(j.kind) }

// RetryLimit is the number of redeliveries after the first attempt.
func (j *PipelineJob) RetryLimit() int {
	p := j.dispatcher.RetryPolicy(j.kind)
	if !p.Retry || p.MaxAttempts <= 1 {
		return 0
	}
	return p.MaxAttempts - 1
}

var _ queue.RetryLimiter = (*PipelineJob)(nil)

func (j *PipelineJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[models.PipelineRequest](payload)
	if err != nil {
		j.dispatcher.Reject(ctx, models.PipelineRequest{RequestID: "unknown", Kind: j.kind, Params: models.RequestParams{Source: "queue"}},
			fmt.Errorf("%w: %v", models.ErrInvalidPayload, err))
		return nil
	}
	req.Kind = j.kind
	_, err = j.dispatcher.Dispatch(ctx, *req)
	return err
}
