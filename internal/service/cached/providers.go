// Package cached wraps provider adapters with a read-through cache so repeated
// runs over the same window do not spend the provider budget again.
package cached

import (
	"context"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/pkg/cache"
)

const dayLayout = "2006-01-02"

type MacroProvider struct {
	next  repository.MacroProvider
	cache cache.Service
	ttl   time.Duration
}

// Macro returns next unchanged when ttl is not positive.
func Macro(next repository.MacroProvider, c cache.Service, ttl time.Duration) repository.MacroProvider {
	if c == nil || ttl <= 0 {
		return next
	}
	return &MacroProvider{next: next, cache: c, ttl: ttl}
}

func (p *MacroProvider) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]models.SeriesPoint, error) {
	key := cache.GenerateKeyWithParams("provider:fred", seriesID, start.Format(dayLayout), end.Format(dayLayout))
	return cache.GetOrLoad(ctx, p.cache, key, p.ttl, func(ctx context.Context) ([]models.SeriesPoint, error) {
		return p.next.FetchSeries(ctx, seriesID, start, end)
	})
}

type PriceProvider struct {
	next  repository.PriceProvider
	cache cache.Service
	ttl   time.Duration
}

func Prices(next repository.PriceProvider, c cache.Service, ttl time.Duration) repository.PriceProvider {
	if c == nil || ttl <= 0 {
		return next
	}
	return &PriceProvider{next: next, cache: c, ttl: ttl}
}

func (p *PriceProvider) FetchCloses(ctx context.Context, ticker string, start, end time.Time, interval string) ([]models.SeriesPoint, error) {
	key := cache.GenerateKeyWithParams("provider:yahoo", ticker, interval, start.Format(dayLayout), end.Format(dayLayout))
	return cache.GetOrLoad(ctx, p.cache, key, p.ttl, func(ctx context.Context) ([]models.SeriesPoint, error) {
		return p.next.FetchCloses(ctx, ticker, start, end, interval)
	})
}

type NewsProvider struct {
	next  repository.NewsProvider
	cache cache.Service
	ttl   time.Duration
}

func News(next repository.NewsProvider, c cache.Service, ttl time.Duration) repository.NewsProvider {
	if c == nil || ttl <= 0 {
		return next
	}
	return &NewsProvider{next: next, cache: c, ttl: ttl}
}

func (p *NewsProvider) FetchArticles(ctx context.Context, ticker string, since time.Time) ([]models.Article, error) {
	key := cache.GenerateKeyWithParams("provider:alpha_vantage", ticker, since.UTC().Format(dayLayout))
	return cache.GetOrLoad(ctx, p.cache, key, p.ttl, func(ctx context.Context) ([]models.Article, error) {
		return p.next.FetchArticles(ctx, ticker, since)
	})
}
