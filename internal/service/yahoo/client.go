// Package yahoo fetches daily closes for market indicators and instruments
// from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/internal/service/ratelimit"
	"github.com/lian220/quintiq-backend/pkg/config"
	"github.com/lian220/quintiq-backend/pkg/util"
)

const LimiterKey = "yahoo"

type barIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

type chartFunc func(*chart.Params) barIterator

// Client implements repository.PriceProvider.
type Client struct {
	limiter *ratelimit.Limiter
	chart   chartFunc
}

// New creates a Yahoo client. The limiter may be nil.
// finance-go keeps one package-level HTTP client, so cfg.Timeout applies process-wide.
func New(cfg config.ProviderConfig, limiter *ratelimit.Limiter) *Client {
	if hc := httpClient(cfg.Timeout); hc != nil {
		finance.SetHTTPClient(hc)
	}
	if limiter != nil {
		limiter.Register(LimiterKey, cfg.RatePerSec, cfg.Burst)
	}
	return &Client{
		limiter: limiter,
		chart:   func(p *chart.Params) barIterator { return chart.Get(p) },
	}
}

// FetchCloses returns one close per UTC calendar day in [start, end] ordered by date.
// When several bars fall on the same day the last one wins.
func (c *Client) FetchCloses(ctx context.Context, ticker string, start, end time.Time, interval string) ([]models.SeriesPoint, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, LimiterKey); err != nil {
			return nil, fmt.Errorf("yahoo %s: %w: %v", ticker, models.ErrProviderUnavailable, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w: %v", ticker, models.ErrProviderUnavailable, err)
	}
	if interval == "" {
		interval = string(datetime.OneDay)
	}

	from := util.Day(start)
	// end is exclusive on the chart API
	to := util.Day(end).AddDate(0, 0, 1)
	iter := c.chart(&chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   ticker,
		Start:    datetime.New(&from),
		End:      datetime.New(&to),
		Interval: datetime.Interval(interval),
	})

	points, err := collectCloses(iter, from, util.Day(end))
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w: %v", ticker, models.ErrProviderUnavailable, err)
	}
	return points, nil
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: timeout}
}

func collectCloses(iter barIterator, from, to time.Time) ([]models.SeriesPoint, error) {
	byDay := make(map[time.Time]float64)
	for iter.Next() {
		bar := iter.Bar()
		if bar == nil {
			continue
		}
		day := util.Day(time.Unix(int64(bar.Timestamp), 0))
		if day.Before(from) || day.After(to) {
			continue
		}
		byDay[day] = bar.Close.InexactFloat64()
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	points := make([]models.SeriesPoint, 0, len(byDay))
	for day, v := range byDay {
		points = append(points, models.SeriesPoint{Date: day, Value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
