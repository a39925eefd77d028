package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	pkgch "github.com/lian220/quintiq-backend/pkg/clickhouse"
	applogger "github.com/lian220/quintiq-backend/pkg/logger"
)

var analysisSchema = []string{`
	CREATE TABLE IF NOT EXISTS technical_verdicts (
		date            Date,
		ticker          String,
		stock_name      String,
		close_price     Float64,
		sma20           Nullable(Float64),
		sma50           Nullable(Float64),
		rsi             Nullable(Float64),
		macd            Nullable(Float64),
		macd_signal     Nullable(Float64),
		golden_cross    UInt8,
		macd_buy_signal UInt8,
		is_recommended  UInt8,
		updated_at      DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (date, ticker)`, `
	CREATE TABLE IF NOT EXISTS sentiment_scores (
		date          Date,
		ticker        String,
		average_score Float64,
		article_count UInt32,
		updated_at    DateTime64(3, 'UTC')
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (date, ticker)`,
}

// CHAnalysisStore persists technical verdicts and sentiment scores keyed by (date, ticker).
type CHAnalysisStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHAnalysisStore(ch *pkgch.Client, l *applogger.Logger) *CHAnalysisStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHAnalysisStore{db: ch.DB(), l: l}
}

func (s *CHAnalysisStore) Schema() []string { return analysisSchema }

// UpsertVerdict reports true when no verdict existed for the key before.
func (s *CHAnalysisStore) UpsertVerdict(ctx context.Context, v *models.TechnicalVerdict) (bool, error) {
	day, err := models.ParseDate(v.Date)
	if err != nil {
		return false, err
	}
	existed, err := s.exists(ctx, "technical_verdicts", day, v.Ticker)
	if err != nil {
		return false, err
	}

	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now().UTC()
	}
	ind := v.Indicators
	const q = `INSERT INTO technical_verdicts
		(date, ticker, stock_name, close_price, sma20, sma50, rsi, macd, macd_signal, golden_cross, macd_buy_signal, is_recommended, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q, day, v.Ticker, v.StockName, v.ClosePrice,
		ind.SMA20, ind.SMA50, ind.RSI, ind.MACD, ind.MACDSignal,
		boolToUInt8(ind.GoldenCross), boolToUInt8(ind.MACDBuySignal), boolToUInt8(v.IsRecommended), v.UpdatedAt)
	if err != nil {
		s.l.Error("clickhouse upsert_verdict error", applogger.String("ticker", v.Ticker), applogger.Error(err))
		return false, fmt.Errorf("upsert verdict %s: %w: %v", v.Ticker, models.ErrStorageUnavailable, err)
	}
	return !existed, nil
}

func (s *CHAnalysisStore) FindVerdicts(ctx context.Context, date string) ([]models.TechnicalVerdict, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ticker, stock_name, close_price, sma20, sma50, rsi, macd, macd_signal,
		golden_cross, macd_buy_signal, is_recommended, updated_at
		FROM technical_verdicts FINAL WHERE date = ? ORDER BY ticker`
	rows, err := s.db.QueryContext(ctx, q, day)
	if err != nil {
		return nil, fmt.Errorf("find verdicts: %w: %v", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []models.TechnicalVerdict
	for rows.Next() {
		var (
			v                          = models.TechnicalVerdict{Date: date}
			sma20, sma50, rsi          sql.NullFloat64
			macd, signal               sql.NullFloat64
			golden, macdBuy, recommend uint8
		)
		if err := rows.Scan(&v.Ticker, &v.StockName, &v.ClosePrice, &sma20, &sma50, &rsi, &macd, &signal,
			&golden, &macdBuy, &recommend, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan verdict: %w: %v", models.ErrStorageUnavailable, err)
		}
		v.Indicators = models.IndicatorSet{
			SMA20:         nullable(sma20),
			SMA50:         nullable(sma50),
			RSI:           nullable(rsi),
			MACD:          nullable(macd),
			MACDSignal:    nullable(signal),
			GoldenCross:   golden == 1,
			MACDBuySignal: macdBuy == 1,
		}
		v.IsRecommended = recommend == 1
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows verdict: %w: %v", models.ErrStorageUnavailable, err)
	}
	return out, nil
}

// UpsertScore reports true when no score existed for the key before.
func (s *CHAnalysisStore) UpsertScore(ctx context.Context, sc *models.SentimentScore) (bool, error) {
	day, err := models.ParseDate(sc.Date)
	if err != nil {
		return false, err
	}
	existed, err := s.exists(ctx, "sentiment_scores", day, sc.Ticker)
	if err != nil {
		return false, err
	}
	if sc.UpdatedAt.IsZero() {
		sc.UpdatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO sentiment_scores (date, ticker, average_score, article_count, updated_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, day, sc.Ticker, sc.AverageScore, uint32(sc.ArticleCount), sc.UpdatedAt); err != nil {
		s.l.Error("clickhouse upsert_score error", applogger.String("ticker", sc.Ticker), applogger.Error(err))
		return false, fmt.Errorf("upsert score %s: %w: %v", sc.Ticker, models.ErrStorageUnavailable, err)
	}
	return !existed, nil
}

func (s *CHAnalysisStore) FindScores(ctx context.Context, date string) ([]models.SentimentScore, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ticker, average_score, article_count, updated_at
		FROM sentiment_scores FINAL WHERE date = ? ORDER BY ticker`
	rows, err := s.db.QueryContext(ctx, q, day)
	if err != nil {
		return nil, fmt.Errorf("find scores: %w: %v", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []models.SentimentScore
	for rows.Next() {
		var (
			sc    = models.SentimentScore{Date: date}
			count uint32
		)
		if err := rows.Scan(&sc.Ticker, &sc.AverageScore, &count, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w: %v", models.ErrStorageUnavailable, err)
		}
		sc.ArticleCount = int(count)
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows score: %w: %v", models.ErrStorageUnavailable, err)
	}
	return out, nil
}

func (s *CHAnalysisStore) exists(ctx context.Context, table string, day time.Time, ticker string) (bool, error) {
	var n uint64
	q := fmt.Sprintf(`SELECT count() FROM %s FINAL WHERE date = ? AND ticker = ?`, table)
	if err := s.db.QueryRowContext(ctx, q, day, ticker).Scan(&n); err != nil {
		return false, fmt.Errorf("lookup %s: %w: %v", table, models.ErrStorageUnavailable, err)
	}
	return n > 0, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
