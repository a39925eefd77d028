// Package sentiment reduces scored articles to a per-instrument average.
package sentiment

import (
	"math"
	"strings"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

// Average returns the mean per-article score for ticker and the number of
// articles that carried a score for it, clamped to [-1, 1]. Zero articles
// yields (0, 0).
func Average(ticker string, articles []models.Article) (float64, int) {
	var (
		sum   float64
		count int
	)
	for _, a := range articles {
		for _, ts := range a.Tickers {
			if !strings.EqualFold(ts.Ticker, ticker) {
				continue
			}
			sum += ts.Score
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return math.Max(-1, math.Min(1, sum/float64(count))), count
}
