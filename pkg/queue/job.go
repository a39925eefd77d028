package queue

import "context"

// Job handles one message type taken from the queue.
type Job interface {
	Name() string
	// Type is the message type this job consumes.
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}

// RetryLimiter overrides QueueConfig.RetryLimit for one job.
type RetryLimiter interface {
	RetryLimit() int
}
