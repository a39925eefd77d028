// Package fusion ranks technical verdicts by a weighted blend with news sentiment.
package fusion

import (
	"sort"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

// Config holds the blend weights and the recommendation threshold.
type Config struct {
	TechnicalWeight float64
	SentimentWeight float64
	Threshold       float64
}

var DefaultConfig = Config{
	TechnicalWeight: 0.7,
	SentimentWeight: 0.3,
	Threshold:       0.6,
}

// Fuser combines technical and sentiment signals. It performs no I/O.
type Fuser struct {
	cfg Config
}

func New(cfg Config) *Fuser {
	if cfg.TechnicalWeight == 0 && cfg.SentimentWeight == 0 {
		cfg = DefaultConfig
	}
	return &Fuser{cfg: cfg}
}

// NormalizeSentiment maps a score in [-1, 1] to [0, 1].
func NormalizeSentiment(s float64) float64 {
	return (clamp(s, -1, 1) + 1) / 2
}

// TechnicalScore is the fraction of buy conditions the verdict satisfies.
func TechnicalScore(v models.TechnicalVerdict) float64 {
	return float64(v.Indicators.BuyConditions()) / 3
}

// Combine blends a technical score in [0, 1] with a raw sentiment score in [-1, 1].
func (f *Fuser) Combine(technical, sentiment float64) float64 {
	return f.cfg.TechnicalWeight*clamp(technical, 0, 1) + f.cfg.SentimentWeight*NormalizeSentiment(sentiment)
}

// Fuse scores every verdict with a ticker and returns them ranked by combined score.
// Missing sentiment counts as neutral (0). Ties keep the input order.
func (f *Fuser) Fuse(technical []models.TechnicalVerdict, sentiment []models.SentimentScore) models.FusionResult {
	lookup := make(map[string]float64, len(sentiment))
	for _, s := range sentiment {
		lookup[s.Ticker] = s.AverageScore
	}

	ranked := make([]models.FusedRecommendation, 0, len(technical))
	for _, v := range technical {
		if v.Ticker == "" {
			continue
		}
		ts := TechnicalScore(v)
		ss := lookup[v.Ticker]
		combined := f.Combine(ts, ss)
		ranked = append(ranked, models.FusedRecommendation{
			Ticker:         v.Ticker,
			StockName:      v.StockName,
			TechnicalScore: ts,
			SentimentScore: ss,
			CombinedScore:  combined,
			IsRecommended:  combined >= f.cfg.Threshold,
			Technical:      v,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CombinedScore > ranked[j].CombinedScore
	})
	return models.FusionResult{Ranked: ranked}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
