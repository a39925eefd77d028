// Package alphavantage fetches scored news articles from the Alpha Vantage
// NEWS_SENTIMENT endpoint.
package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/internal/service/ratelimit"
	"github.com/lian220/quintiq-backend/pkg/config"
	"github.com/lian220/quintiq-backend/pkg/util"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"
	DefaultLimit   = 100
	LimiterKey     = "alpha_vantage"
)

// Client implements repository.NewsProvider.
type Client struct {
	http    *resty.Client
	apiKey  string
	limit   int
	limiter *ratelimit.Limiter
}

type newsResponse struct {
	Feed        []feedItem `json:"feed"`
	Information string     `json:"Information"`
	Note        string     `json:"Note"`
}

type feedItem struct {
	Title           string            `json:"title"`
	URL             string            `json:"url"`
	TimePublished   string            `json:"time_published"`
	TickerSentiment []tickerSentiment `json:"ticker_sentiment"`
}

type tickerSentiment struct {
	Ticker         string `json:"ticker"`
	RelevanceScore string `json:"relevance_score"`
	SentimentScore string `json:"ticker_sentiment_score"`
}

// New creates a client. limit caps the articles per call; zero means DefaultLimit.
func New(cfg config.ProviderConfig, limit int, limiter *ratelimit.Limiter) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(base, "/"))
	client.SetTimeout(timeout)

	if limiter != nil {
		limiter.Register(LimiterKey, cfg.RatePerSec, cfg.Burst)
	}
	return &Client{http: client, apiKey: cfg.APIKey, limit: limit, limiter: limiter}
}

// FetchArticles returns articles mentioning ticker published at or after since.
func (c *Client) FetchArticles(ctx context.Context, ticker string, since time.Time) ([]models.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("alpha vantage %s: api key not configured: %w", ticker, models.ErrProviderUnavailable)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, LimiterKey); err != nil {
			return nil, fmt.Errorf("alpha vantage %s: %w: %v", ticker, models.ErrProviderUnavailable, err)
		}
	}

	var body newsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":  "NEWS_SENTIMENT",
			"tickers":   ticker,
			"time_from": util.FormatCompactMinute(util.Day(since)),
			"limit":     strconv.Itoa(c.limit),
			"apikey":    c.apiKey,
		}).
		SetResult(&body).
		Get("/query")
	if err != nil {
		return nil, fmt.Errorf("alpha vantage %s: %w: %v", ticker, models.ErrProviderUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage %s: status %d: %w", ticker, resp.StatusCode(), models.ErrProviderUnavailable)
	}
	if msg := firstNonEmpty(body.Information, body.Note); msg != "" {
		return nil, fmt.Errorf("alpha vantage %s: %s: %w", ticker, msg, models.ErrProviderUnavailable)
	}

	return toArticles(body.Feed), nil
}

func toArticles(feed []feedItem) []models.Article {
	out := make([]models.Article, 0, len(feed))
	for _, item := range feed {
		a := models.Article{
			Title: item.Title,
			URL:   item.URL,
		}
		if ts, ok := util.ParseTime(item.TimePublished); ok {
			a.PublishedAt = ts
		}
		for _, s := range item.TickerSentiment {
			score, err := strconv.ParseFloat(s.SentimentScore, 64)
			if err != nil {
				continue
			}
			relevance, _ := strconv.ParseFloat(s.RelevanceScore, 64)
			a.Tickers = append(a.Tickers, models.TickerSentiment{
				Ticker:    s.Ticker,
				Score:     score,
				Relevance: relevance,
			})
		}
		out = append(out, a)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
