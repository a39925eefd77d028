package repository

import (
	"context"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

// Upserts across the stores report true when the key had no stored row before.

// DailyStore persists one merged record per calendar date.
type DailyStore interface {
	// UpsertDaily merges partial into the stored record for date (additive union).
	UpsertDaily(ctx context.Context, date string, partial *models.DailyRecord) (bool, error)
	FindDailyRange(ctx context.Context, start, end time.Time) ([]*models.DailyRecord, error)
}

type InstrumentStore interface {
	FindActive(ctx context.Context, kind models.SourceClass) ([]models.Instrument, error)
}

type VerdictStore interface {
	UpsertVerdict(ctx context.Context, v *models.TechnicalVerdict) (bool, error)
	FindVerdicts(ctx context.Context, date string) ([]models.TechnicalVerdict, error)
}

type ScoreStore interface {
	UpsertScore(ctx context.Context, s *models.SentimentScore) (bool, error)
	FindScores(ctx context.Context, date string) ([]models.SentimentScore, error)
}

// MacroProvider fetches macroeconomic series observations.
type MacroProvider interface {
	FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]models.SeriesPoint, error)
}

// PriceProvider fetches close prices for market indicators and instruments.
type PriceProvider interface {
	FetchCloses(ctx context.Context, ticker string, start, end time.Time, interval string) ([]models.SeriesPoint, error)
}

// NewsProvider fetches scored articles mentioning ticker published since the given time.
type NewsProvider interface {
	FetchArticles(ctx context.Context, ticker string, since time.Time) ([]models.Article, error)
}

// Notifier posts human-readable progress for a request.
// Implementations thread messages by the request's correlation token when present.
type Notifier interface {
	NotifyStart(ctx context.Context, req models.PipelineRequest, detail string) error
	NotifySuccess(ctx context.Context, req models.PipelineRequest, summary string) error
	NotifyError(ctx context.Context, req models.PipelineRequest, message string) error
}

// OutcomePublisher receives every terminal pipeline outcome.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, outcome models.PipelineOutcome) error
}

// OutcomeReader exposes the most recent outcome per request kind.
type OutcomeReader interface {
	LastOutcomes(ctx context.Context) (map[models.RequestKind]models.PipelineOutcome, error)
}

// Locker guards single in-flight work across processes. Unlock only
// releases a lock still owned by token.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

type Metrics interface {
	RecordPipelineRun(kind, status string, seconds float64)
	RecordProviderError(provider string)
	RecordSkipped(stage, reason string)
	RecordRecordsWritten(table string, n int)
	RecordError(kind string)
}
