package fusion

import (
	"math"
	"testing"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCombineBoundaries(t *testing.T) {
	f := New(DefaultConfig)
	if got := f.Combine(0, -1); !approx(got, 0) {
		t.Fatalf("Combine(0,-1) = %v, want 0", got)
	}
	if got := f.Combine(1, 1); !approx(got, 1) {
		t.Fatalf("Combine(1,1) = %v, want 1", got)
	}
}

func TestCombineMonotonic(t *testing.T) {
	f := New(DefaultConfig)
	for _, s := range []float64{-1, -0.5, 0, 0.5, 1} {
		prev := -1.0
		for ts := 0.0; ts <= 1.0; ts += 0.1 {
			got := f.Combine(ts, s)
			if got < prev {
				t.Fatalf("not monotonic in technical score at %v/%v", ts, s)
			}
			prev = got
		}
	}
	for _, ts := range []float64{0, 0.33, 0.66, 1} {
		prev := -1.0
		for s := -1.0; s <= 1.0; s += 0.1 {
			got := f.Combine(ts, s)
			if got < prev {
				t.Fatalf("not monotonic in sentiment at %v/%v", ts, s)
			}
			prev = got
		}
	}
}

func TestFuseMissingSentimentDefaultsNeutral(t *testing.T) {
	f := New(DefaultConfig)
	res := f.Fuse([]models.TechnicalVerdict{verdict("AAPL", true, 40, true)}, nil)
	if len(res.Ranked) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Ranked))
	}
	rec := res.Ranked[0]
	if !approx(rec.TechnicalScore, 1) {
		t.Fatalf("technical score = %v, want 1", rec.TechnicalScore)
	}
	if !approx(rec.CombinedScore, 0.85) {
		t.Fatalf("combined = %v, want 0.85", rec.CombinedScore)
	}
	if !rec.IsRecommended {
		t.Fatalf("expected recommended")
	}
	if len(res.Recommended()) != 1 {
		t.Fatalf("recommended view should contain the entry")
	}
}

func TestFuseRanksAndKeepsFullList(t *testing.T) {
	f := New(DefaultConfig)
	technical := []models.TechnicalVerdict{
		verdict("LOW", false, 70, false),
		verdict("MID", true, 70, false),
		verdict("TOP", true, 40, true),
		verdict("", true, 40, true),
	}
	sentiment := []models.SentimentScore{
		{Ticker: "LOW", AverageScore: -0.5},
		{Ticker: "TOP", AverageScore: 0.4},
	}
	res := f.Fuse(technical, sentiment)
	if len(res.Ranked) != 3 {
		t.Fatalf("expected 3 ranked entries, got %d", len(res.Ranked))
	}
	order := []string{res.Ranked[0].Ticker, res.Ranked[1].Ticker, res.Ranked[2].Ticker}
	if order[0] != "TOP" || order[1] != "MID" || order[2] != "LOW" {
		t.Fatalf("unexpected order %v", order)
	}
	if len(res.Recommended()) != 1 || res.Recommended()[0].Ticker != "TOP" {
		t.Fatalf("unexpected recommended view %+v", res.Recommended())
	}
	if res.Ranked[2].Technical.Ticker != "LOW" {
		t.Fatalf("technical fields must be retained")
	}
}

func TestFuseStableForTies(t *testing.T) {
	f := New(DefaultConfig)
	technical := []models.TechnicalVerdict{
		verdict("A", true, 70, false),
		verdict("B", false, 40, false),
		verdict("C", false, 70, true),
	}
	res := f.Fuse(technical, nil)
	for i, want := range []string{"A", "B", "C"} {
		if res.Ranked[i].Ticker != want {
			t.Fatalf("position %d = %s, want %s", i, res.Ranked[i].Ticker, want)
		}
	}
}

func verdict(ticker string, golden bool, rsi float64, macdBuy bool) models.TechnicalVerdict {
	r := rsi
	set := models.IndicatorSet{RSI: &r, GoldenCross: golden, MACDBuySignal: macdBuy}
	return models.TechnicalVerdict{
		Date:          "2024-05-02",
		Ticker:        ticker,
		StockName:     ticker,
		Indicators:    set,
		IsRecommended: set.Recommended(),
	}
}
