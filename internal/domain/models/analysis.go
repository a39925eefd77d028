package models

import "time"

// IndicatorSet holds the latest technical indicator values for an instrument.
// Nil values mean the series was too short for the indicator window.
type IndicatorSet struct {
	SMA20         *float64 `json:"sma20"`
	SMA50         *float64 `json:"sma50"`
	RSI           *float64 `json:"rsi"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macdSignal"`
	GoldenCross   bool     `json:"goldenCross"`
	MACDBuySignal bool     `json:"macdBuySignal"`
}

// RSIBelow reports whether RSI is defined and below limit.
func (s IndicatorSet) RSIBelow(limit float64) bool {
	return s.RSI != nil && *s.RSI < limit
}

// BuyConditions returns how many of the three buy conditions hold.
func (s IndicatorSet) BuyConditions() int {
	n := 0
	if s.GoldenCross {
		n++
	}
	if s.RSIBelow(50) {
		n++
	}
	if s.MACDBuySignal {
		n++
	}
	return n
}

// Recommended applies the technical buy rule: golden cross, RSI below 50 and MACD above signal.
func (s IndicatorSet) Recommended() bool {
	return s.GoldenCross && s.RSIBelow(50) && s.MACDBuySignal
}

type TechnicalVerdict struct {
	Date          string       `json:"date"`
	Ticker        string       `json:"ticker"`
	StockName     string       `json:"stockName"`
	ClosePrice    float64      `json:"closePrice"`
	Indicators    IndicatorSet `json:"indicators"`
	IsRecommended bool         `json:"isRecommended"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type SentimentScore struct {
	Ticker       string    `json:"ticker"`
	Date         string    `json:"date"`
	AverageScore float64   `json:"averageScore"`
	ArticleCount int       `json:"articleCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TickerSentiment is the provider's score of one article for one ticker.
type TickerSentiment struct {
	Ticker    string  `json:"ticker"`
	Score     float64 `json:"score"`
	Relevance float64 `json:"relevance"`
}

// Article is a scored news article returned by the news-sentiment provider.
type Article struct {
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	PublishedAt time.Time         `json:"publishedAt"`
	Tickers     []TickerSentiment `json:"tickers"`
}

// FusedRecommendation combines a technical verdict with the instrument's sentiment.
type FusedRecommendation struct {
	Ticker         string           `json:"ticker"`
	StockName      string           `json:"stockName"`
	TechnicalScore float64          `json:"technicalScore"`
	SentimentScore float64          `json:"sentimentScore"`
	CombinedScore  float64          `json:"combinedScore"`
	IsRecommended  bool             `json:"isRecommended"`
	Technical      TechnicalVerdict `json:"technical"`
}

// FusionResult is the full ranked list, highest combined score first.
type FusionResult struct {
	Ranked []FusedRecommendation `json:"ranked"`
}

// Recommended returns the ranked entries at or above the recommendation threshold.
func (r FusionResult) Recommended() []FusedRecommendation {
	out := make([]FusedRecommendation, 0, len(r.Ranked))
	for _, rec := range r.Ranked {
		if rec.IsRecommended {
			out = append(out, rec)
		}
	}
	return out
}

// Top returns up to n entries from the head of the ranking.
func (r FusionResult) Top(n int) []FusedRecommendation {
	if n > len(r.Ranked) {
		n = len(r.Ranked)
	}
	return r.Ranked[:n]
}
