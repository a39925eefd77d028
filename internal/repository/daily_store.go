package repository

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	pkgch "github.com/lian220/quintiq-backend/pkg/clickhouse"
	applogger "github.com/lian220/quintiq-backend/pkg/logger"
)

const dailyTable = "daily_records"

var dailySchema = []string{`
	CREATE TABLE IF NOT EXISTS daily_records (
		date              Date,
		macro_indicators  Map(String, Float64),
		market_indicators Map(String, Float64),
		instrument_prices Map(String, Float64),
		updated_at        DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY date`,
}

// CHDailyStore implements DailyStore on a ReplacingMergeTree table. Upserts
// read the current row with FINAL, merge in memory and insert the union; the
// newest updated_at wins on merge.
type CHDailyStore struct {
	db *sql.DB
	l  *applogger.Logger
	mu sync.Mutex
}

func NewCHDailyStore(ch *pkgch.Client, l *applogger.Logger) *CHDailyStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHDailyStore{db: ch.DB(), l: l}
}

// Schema returns the DDL owned by this store.
func (s *CHDailyStore) Schema() []string { return dailySchema }

// UpsertDaily reports true when no record existed for date before. A partial
// that adds nothing new is not written.
func (s *CHDailyStore) UpsertDaily(ctx context.Context, date string, partial *models.DailyRecord) (bool, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return false, fmt.Errorf("upsert daily %q: %w", date, models.ErrInvalidDateFormat)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.findOne(ctx, day)
	if err != nil {
		return false, err
	}
	merged, changed, inserted := mergeDaily(current, date, partial, time.Now().UTC())
	if !changed {
		return false, nil
	}

	const q = `INSERT INTO daily_records (date, macro_indicators, market_indicators, instrument_prices, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q, day, merged.MacroIndicators, merged.MarketIndicators, closePrices(merged.InstrumentPrices), merged.UpdatedAt)
	if err != nil {
		s.l.Error("clickhouse upsert_daily error", applogger.String("date", date), applogger.Error(err))
		return false, fmt.Errorf("upsert daily %s: %w: %v", date, models.ErrStorageUnavailable, err)
	}
	return inserted, nil
}

func (s *CHDailyStore) findOne(ctx context.Context, day time.Time) (*models.DailyRecord, error) {
	records, err := s.query(ctx, `WHERE date = ?`, day)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// FindDailyRange returns records in [start, end] ordered by date.
func (s *CHDailyStore) FindDailyRange(ctx context.Context, start, end time.Time) ([]*models.DailyRecord, error) {
	began := time.Now()
	out, err := s.query(ctx, `WHERE date >= ? AND date <= ?`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	s.l.Debug("clickhouse find_daily_range ok",
		applogger.String("start", start.Format(models.DateLayout)),
		applogger.String("end", end.Format(models.DateLayout)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	return out, nil
}

func (s *CHDailyStore) query(ctx context.Context, where string, args ...any) ([]*models.DailyRecord, error) {
	q := `SELECT date, macro_indicators, market_indicators, instrument_prices, updated_at
		FROM daily_records FINAL ` + where + ` ORDER BY date ASC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse daily query error", applogger.String("table", dailyTable), applogger.Error(err))
		return nil, fmt.Errorf("query daily: %w: %v", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []*models.DailyRecord
	for rows.Next() {
		var (
			day    time.Time
			prices map[string]float64
			r      = models.NewDailyRecord("")
		)
		if err := rows.Scan(&day, &r.MacroIndicators, &r.MarketIndicators, &prices, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily: %w: %v", models.ErrStorageUnavailable, err)
		}
		r.Date = day.Format(models.DateLayout)
		for ticker, v := range prices {
			r.InstrumentPrices[ticker] = models.InstrumentPrice{ClosePrice: v}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows daily: %w: %v", models.ErrStorageUnavailable, err)
	}
	return out, nil
}

// mergeDaily returns the merged record, whether it differs from current and
// whether it is the first record for date.
func mergeDaily(current *models.DailyRecord, date string, partial *models.DailyRecord, now time.Time) (*models.DailyRecord, bool, bool) {
	merged := models.NewDailyRecord(date)
	if current != nil {
		merged.Merge(current)
	}
	before := snapshot(merged)
	merged.Merge(partial)
	if current != nil && reflect.DeepEqual(before, snapshot(merged)) {
		return merged, false, false
	}
	if merged.IsEmpty() {
		return merged, false, false
	}
	merged.UpdatedAt = now
	return merged, true, current == nil
}

type recordValues struct {
	macro, market map[string]float64
	prices        map[string]models.InstrumentPrice
}

func snapshot(r *models.DailyRecord) recordValues {
	v := recordValues{
		macro:  make(map[string]float64, len(r.MacroIndicators)),
		market: make(map[string]float64, len(r.MarketIndicators)),
		prices: make(map[string]models.InstrumentPrice, len(r.InstrumentPrices)),
	}
	for k, x := range r.MacroIndicators {
		v.macro[k] = x
	}
	for k, x := range r.MarketIndicators {
		v.market[k] = x
	}
	for k, x := range r.InstrumentPrices {
		v.prices[k] = x
	}
	return v
}

func closePrices(prices map[string]models.InstrumentPrice) map[string]float64 {
	out := make(map[string]float64, len(prices))
	for ticker, p := range prices {
		out[ticker] = p.ClosePrice
	}
	return out
}
