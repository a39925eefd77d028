package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/internal/services/indicators"
	"github.com/lian220/quintiq-backend/pkg/logger"
)

type AnalyzerConfig struct {
	WindowDays      int
	MinObservations int
	Params          indicators.Params
}

// Analyzer rebuilds per-instrument close series from stored daily records and
// derives a technical verdict for each.
type Analyzer struct {
	cfg         AnalyzerConfig
	instruments domrepo.InstrumentStore
	daily       domrepo.DailyStore
	verdicts    domrepo.VerdictStore
	metrics     domrepo.Metrics
	l           *logger.Logger
	now         func() time.Time
}

func NewAnalyzer(cfg AnalyzerConfig, instruments domrepo.InstrumentStore, daily domrepo.DailyStore,
	verdicts domrepo.VerdictStore, metrics domrepo.Metrics, l *logger.Logger) *Analyzer {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 180
	}
	if cfg.MinObservations <= 0 {
		cfg.MinObservations = 50
	}
	if cfg.Params == (indicators.Params{}) {
		cfg.Params = indicators.DefaultParams
	}
	return &Analyzer{
		cfg:         cfg,
		instruments: instruments,
		daily:       daily,
		verdicts:    verdicts,
		metrics:     orNopMetrics(metrics),
		l:           orNopLogger(l),
		now:         time.Now,
	}
}

// Analyze returns a verdict for every active instrument with enough history
// as of asOf (today when empty). On a global failure it returns an empty list
// and the error.
func (a *Analyzer) Analyze(ctx context.Context, asOf string) ([]models.TechnicalVerdict, error) {
	end, err := resolveDate(asOf, a.now)
	if err != nil {
		return []models.TechnicalVerdict{}, err
	}
	list, err := a.instruments.FindActive(ctx, models.SourceInstrument)
	if err != nil {
		a.l.Error("technical analysis aborted", logger.String("stage", "instruments"), logger.Error(err))
		return []models.TechnicalVerdict{}, fmt.Errorf("load instruments: %w", err)
	}
	records, err := a.daily.FindDailyRange(ctx, end.AddDate(0, 0, -a.cfg.WindowDays), end)
	if err != nil {
		a.l.Error("technical analysis aborted", logger.String("stage", "daily"), logger.Error(err))
		return []models.TechnicalVerdict{}, fmt.Errorf("load daily records: %w", err)
	}
	models.SortDailyRecords(records)

	out := make([]models.TechnicalVerdict, 0, len(list))
	for _, in := range list {
		closes, observed, date := closeSeries(records, in.Code)
		if observed < a.cfg.MinObservations {
			a.metrics.RecordSkipped("technical", "insufficient_history")
			a.l.Warn("instrument skipped",
				logger.String("ticker", in.Code),
				logger.Int("observations", observed),
				logger.Error(models.ErrInsufficientHistory))
			continue
		}

		set := indicators.Compute(closes, a.cfg.Params)
		v := models.TechnicalVerdict{
			Date:          date,
			Ticker:        in.Code,
			StockName:     in.Name,
			ClosePrice:    indicators.Last(closes),
			Indicators:    set,
			IsRecommended: set.Recommended(),
			UpdatedAt:     a.now().UTC(),
		}
		if _, err := a.verdicts.UpsertVerdict(ctx, &v); err != nil {
			a.l.Error("technical analysis aborted", logger.String("ticker", in.Code), logger.Error(err))
			return []models.TechnicalVerdict{}, fmt.Errorf("store verdict %s: %w", in.Code, err)
		}
		out = append(out, v)
	}
	a.metrics.RecordRecordsWritten("technical_verdicts", len(out))
	return out, nil
}

// closeSeries builds the ticker's closes over the price dates between its first
// and last real observation. Dates carrying other tickers' prices but not this
// one are forward filled; macro-only dates are ignored. It returns the series,
// the number of real observations and the date of the last real close.
func closeSeries(records []*models.DailyRecord, ticker string) ([]float64, int, string) {
	first, last := -1, -1
	for i, r := range records {
		if p, ok := r.InstrumentPrices[ticker]; ok && !math.IsNaN(p.ClosePrice) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil, 0, ""
	}

	raw := make([]float64, 0, last-first+1)
	observed := 0
	for _, r := range records[first : last+1] {
		if len(r.InstrumentPrices) == 0 {
			continue
		}
		p, ok := r.InstrumentPrices[ticker]
		if !ok || math.IsNaN(p.ClosePrice) {
			raw = append(raw, math.NaN())
			continue
		}
		raw = append(raw, p.ClosePrice)
		observed++
	}
	return indicators.FillForward(raw), observed, records[last].Date
}
