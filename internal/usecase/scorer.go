package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/internal/services/sentiment"
	"github.com/lian220/quintiq-backend/pkg/logger"
)

type ScorerConfig struct {
	WindowDays int
}

// Scorer averages provider sentiment per active instrument.
type Scorer struct {
	cfg         ScorerConfig
	instruments domrepo.InstrumentStore
	news        domrepo.NewsProvider
	scores      domrepo.ScoreStore
	metrics     domrepo.Metrics
	l           *logger.Logger
	now         func() time.Time
}

func NewScorer(cfg ScorerConfig, instruments domrepo.InstrumentStore, news domrepo.NewsProvider,
	scores domrepo.ScoreStore, metrics domrepo.Metrics, l *logger.Logger) *Scorer {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 3
	}
	return &Scorer{
		cfg:         cfg,
		instruments: instruments,
		news:        news,
		scores:      scores,
		metrics:     orNopMetrics(metrics),
		l:           orNopLogger(l),
		now:         time.Now,
	}
}

// Score returns one score per instrument with at least one scored article in
// the trailing window before asOf. Instruments without articles are absent.
func (s *Scorer) Score(ctx context.Context, asOf string) ([]models.SentimentScore, error) {
	day, err := resolveDate(asOf, s.now)
	if err != nil {
		return []models.SentimentScore{}, err
	}
	date := models.FormatDate(day)
	since := day.AddDate(0, 0, -s.cfg.WindowDays)
	until := day.AddDate(0, 0, 1)

	list, err := s.instruments.FindActive(ctx, models.SourceInstrument)
	if err != nil {
		s.l.Error("sentiment scoring aborted", logger.Error(err))
		return []models.SentimentScore{}, fmt.Errorf("load instruments: %w", err)
	}

	out := make([]models.SentimentScore, 0, len(list))
	for _, in := range list {
		articles, err := s.news.FetchArticles(ctx, in.Code, since)
		if err != nil {
			s.metrics.RecordProviderError("alpha_vantage")
			s.metrics.RecordSkipped("sentiment", "provider_error")
			s.l.Warn("instrument skipped", logger.String("ticker", in.Code), logger.Error(err))
			continue
		}
		avg, count := sentiment.Average(in.Code, within(articles, until))
		if count == 0 {
			s.metrics.RecordSkipped("sentiment", "no_articles")
			continue
		}

		sc := models.SentimentScore{
			Ticker:       in.Code,
			Date:         date,
			AverageScore: avg,
			ArticleCount: count,
			UpdatedAt:    s.now().UTC(),
		}
		if _, err := s.scores.UpsertScore(ctx, &sc); err != nil {
			s.l.Error("sentiment scoring aborted", logger.String("ticker", in.Code), logger.Error(err))
			return []models.SentimentScore{}, fmt.Errorf("store score %s: %w", in.Code, err)
		}
		out = append(out, sc)
	}
	s.metrics.RecordRecordsWritten("sentiment_scores", len(out))
	return out, nil
}

// within drops articles published after until. Undated articles are kept.
func within(articles []models.Article, until time.Time) []models.Article {
	out := articles[:0:0]
	for _, a := range articles {
		if !a.PublishedAt.IsZero() && !a.PublishedAt.Before(until) {
			continue
		}
		out = append(out, a)
	}
	return out
}
