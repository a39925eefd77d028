package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/pkg/logger"
	"github.com/lian220/quintiq-backend/pkg/util"
)

const aggregateLockKey = "lock:aggregate"

type AggregatorConfig struct {
	LookbackDays int
	LockTTL      time.Duration
	// Interval is passed to the price provider, "1d" when empty.
	Interval string
}

// Aggregator merges macro, market and instrument series into one record per date.
type Aggregator struct {
	cfg         AggregatorConfig
	instruments domrepo.InstrumentStore
	daily       domrepo.DailyStore
	macro       domrepo.MacroProvider
	prices      domrepo.PriceProvider
	locker      domrepo.Locker
	metrics     domrepo.Metrics
	l           *logger.Logger
	now         func() time.Time
}

// NewAggregator builds the aggregator. locker may be nil for a single process.
func NewAggregator(cfg AggregatorConfig, instruments domrepo.InstrumentStore, daily domrepo.DailyStore,
	macro domrepo.MacroProvider, prices domrepo.PriceProvider, locker domrepo.Locker,
	metrics domrepo.Metrics, l *logger.Logger) *Aggregator {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 365
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	return &Aggregator{
		cfg:         cfg,
		instruments: instruments,
		daily:       daily,
		macro:       macro,
		prices:      prices,
		locker:      locker,
		metrics:     orNopMetrics(metrics),
		l:           orNopLogger(l),
		now:         time.Now,
	}
}

// Aggregate fetches every active series over the lookback window ending at
// targetDate (today when empty) and upserts one record per date.
// A failing series is skipped; storage failures abort the run.
func (a *Aggregator) Aggregate(ctx context.Context, targetDate string) (models.AggregationResult, error) {
	end, err := resolveDate(targetDate, a.now)
	if err != nil {
		return models.AggregationResult{}, err
	}
	start, end := util.LookbackWindow(end, a.cfg.LookbackDays)

	if a.locker != nil {
		token, ok, err := a.locker.TryLock(ctx, aggregateLockKey, a.cfg.LockTTL)
		if err != nil {
			return models.AggregationResult{}, fmt.Errorf("acquire aggregation lock: %w", err)
		}
		if !ok {
			return models.AggregationResult{}, models.ErrAggregationInProgress
		}
		defer func() {
			// the run may have been cancelled; release on a fresh context
			uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.locker.Unlock(uctx, aggregateLockKey, token); err != nil {
				a.l.Warn("release aggregation lock", logger.Error(err))
			}
		}()
	}

	result := models.AggregationResult{
		StartDate:       models.FormatDate(start),
		EndDate:         models.FormatDate(end),
		PerSourceCounts: make(map[models.SourceClass]int, len(models.SourceClasses)),
	}
	buckets := make(map[string]*models.DailyRecord)

	for _, class := range models.SourceClasses {
		list, err := a.instruments.FindActive(ctx, class)
		if err != nil {
			return result, fmt.Errorf("load active %s: %w", class, err)
		}
		result.PerSourceCounts[class] = 0

		for _, in := range list {
			points, err := a.fetch(ctx, class, in, start, end)
			if err != nil {
				a.metrics.RecordProviderError(providerName(class))
				a.metrics.RecordSkipped("aggregate", "provider_error")
				a.l.Warn("series skipped",
					logger.String("class", string(class)),
					logger.String("code", in.Code),
					logger.Error(err))
				continue
			}
			if bucketize(buckets, class, seriesKey(class, in), points) > 0 {
				result.PerSourceCounts[class]++
			} else {
				a.metrics.RecordSkipped("aggregate", "empty_series")
			}
		}
	}

	dates := make([]string, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		if _, err := a.daily.UpsertDaily(ctx, d, buckets[d]); err != nil {
			return result, fmt.Errorf("upsert %s: %w", d, err)
		}
		result.DatesWritten++
	}
	a.metrics.RecordRecordsWritten("daily_records", result.DatesWritten)
	return result, nil
}

func (a *Aggregator) fetch(ctx context.Context, class models.SourceClass, in models.Instrument, start, end time.Time) ([]models.SeriesPoint, error) {
	if class == models.SourceMacro {
		return a.macro.FetchSeries(ctx, in.Code, start, end)
	}
	return a.prices.FetchCloses(ctx, in.Code, start, end, a.cfg.Interval)
}

// bucketize writes each defined point into its date bucket and returns how many were kept.
func bucketize(buckets map[string]*models.DailyRecord, class models.SourceClass, name string, points []models.SeriesPoint) int {
	kept := 0
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		date := models.FormatDate(p.Date)
		b, ok := buckets[date]
		if !ok {
			b = models.NewDailyRecord(date)
			buckets[date] = b
		}
		b.Set(class, name, p.Value)
		kept++
	}
	return kept
}

// seriesKey is the map key a series is stored under: tickers for instruments,
// logical names otherwise.
func seriesKey(class models.SourceClass, in models.Instrument) string {
	if class == models.SourceInstrument || in.Name == "" {
		return in.Code
	}
	return in.Name
}

func providerName(class models.SourceClass) string {
	if class == models.SourceMacro {
		return "fred"
	}
	return "yahoo"
}
