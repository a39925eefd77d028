package usecase

import (
	"fmt"
	"strings"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

const topN = 3

type TechnicalSummary struct {
	TotalAnalyzed      int                       `json:"totalAnalyzed"`
	RecommendedCount   int                       `json:"recommendedCount"`
	RecommendedTickers []string                  `json:"recommendedTickers"`
	Verdicts           []models.TechnicalVerdict `json:"verdicts"`
}

type SentimentSummary struct {
	ScoredCount      int                     `json:"scoredCount"`
	AverageSentiment float64                 `json:"averageSentiment"`
	Scores           []models.SentimentScore `json:"scores"`
}

type CombinedSummary struct {
	TechnicalAnalyzed    int                          `json:"technicalAnalyzed"`
	TechnicalRecommended int                          `json:"technicalRecommended"`
	SentimentAnalyzed    int                          `json:"sentimentAnalyzed"`
	AverageSentiment     float64                      `json:"averageSentiment"`
	Total                int                          `json:"total"`
	RecommendedCount     int                          `json:"recommendedCount"`
	TopTickers           []string                     `json:"topTickers"`
	Recommendations      []models.FusedRecommendation `json:"recommendations"`
}

func summarizeTechnical(verdicts []models.TechnicalVerdict) TechnicalSummary {
	s := TechnicalSummary{TotalAnalyzed: len(verdicts), RecommendedTickers: []string{}, Verdicts: verdicts}
	for _, v := range verdicts {
		if v.IsRecommended {
			s.RecommendedCount++
			s.RecommendedTickers = append(s.RecommendedTickers, v.Ticker)
		}
	}
	return s
}

func summarizeSentiment(scores []models.SentimentScore) SentimentSummary {
	return SentimentSummary{ScoredCount: len(scores), AverageSentiment: averageScore(scores), Scores: scores}
}

func summarizeCombined(technical []models.TechnicalVerdict, scores []models.SentimentScore, result models.FusionResult) CombinedSummary {
	s := CombinedSummary{
		TechnicalAnalyzed: len(technical),
		SentimentAnalyzed: len(scores),
		AverageSentiment:  averageScore(scores),
		Total:             len(result.Ranked),
		RecommendedCount:  len(result.Recommended()),
		TopTickers:        []string{},
		Recommendations:   result.Ranked,
	}
	for _, v := range technical {
		if v.IsRecommended {
			s.TechnicalRecommended++
		}
	}
	for _, r := range result.Top(topN) {
		s.TopTickers = append(s.TopTickers, r.Ticker)
	}
	return s
}

func averageScore(scores []models.SentimentScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.AverageScore
	}
	return sum / float64(len(scores))
}

func (s TechnicalSummary) Text() string {
	tickers := "none"
	if len(s.RecommendedTickers) > 0 {
		tickers = strings.Join(s.RecommendedTickers, ", ")
	}
	return fmt.Sprintf("analyzed %d instruments, %d recommended: %s", s.TotalAnalyzed, s.RecommendedCount, tickers)
}

func (s SentimentSummary) Text() string {
	return fmt.Sprintf("scored %d instruments, average sentiment %.2f", s.ScoredCount, s.AverageSentiment)
}

func (s CombinedSummary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ranked %d instruments, %d recommended, average sentiment %.2f", s.Total, s.RecommendedCount, s.AverageSentiment)
	for i, r := range s.Recommendations {
		if i == topN {
			break
		}
		fmt.Fprintf(&b, "\n%d. %s (%.2f)", i+1, r.Ticker, r.CombinedScore)
	}
	return b.String()
}

func aggregationText(r models.AggregationResult, seconds float64) string {
	return fmt.Sprintf("%s..%s in %.1fs: macro %d, market %d, instruments %d, dates written %d",
		r.StartDate, r.EndDate, seconds,
		r.PerSourceCounts[models.SourceMacro],
		r.PerSourceCounts[models.SourceMarket],
		r.PerSourceCounts[models.SourceInstrument],
		r.DatesWritten)
}
