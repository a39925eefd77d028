package sentiment

import (
	"testing"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

func TestAverageMatchesTicker(t *testing.T) {
	articles := []models.Article{
		{Tickers: []models.TickerSentiment{{Ticker: "AAPL", Score: 0.4}, {Ticker: "MSFT", Score: -0.9}}},
		{Tickers: []models.TickerSentiment{{Ticker: "aapl", Score: 0.2}}},
		{Tickers: []models.TickerSentiment{{Ticker: "TSLA", Score: 0.8}}},
	}
	avg, n := Average("AAPL", articles)
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if avg < 0.2999 || avg > 0.3001 {
		t.Fatalf("avg = %v, want 0.3", avg)
	}
}

func TestAverageNoArticles(t *testing.T) {
	avg, n := Average("AAPL", nil)
	if n != 0 || avg != 0 {
		t.Fatalf("expected no score, got %v/%d", avg, n)
	}
}

func TestAverageClampsOutOfRangeScores(t *testing.T) {
	articles := []models.Article{
		{Tickers: []models.TickerSentiment{{Ticker: "NVDA", Score: 1.7}}},
		{Tickers: []models.TickerSentiment{{Ticker: "NVDA", Score: 1.3}}},
		{Tickers: []models.TickerSentiment{{Ticker: "INTC", Score: -2.5}}},
	}
	if avg, n := Average("NVDA", articles); avg != 1 || n != 2 {
		t.Fatalf("NVDA = %v/%d, want 1/2", avg, n)
	}
	if avg, _ := Average("INTC", articles); avg != -1 {
		t.Fatalf("INTC = %v, want -1", avg)
	}
}
