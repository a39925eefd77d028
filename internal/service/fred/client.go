// Package fred fetches macroeconomic series observations from the FRED API.
package fred

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
)

const (
	DefaultBaseURL = "https://api.stlouisfed.org"
	LimiterKey     = "fred"
	dateLayout     = "2006-01-02"
)

// Client implements repository.MacroProvider.
type Client struct {
	http    *resty.Client
	apiKey  string
	limiter *ratelimit.Limiter
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
	ErrorMessage string        `json:"error_message"`
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// New creates a FRED client. The limiter may be nil.
func New(cfg config.ProviderConfig, limiter *ratelimit.Limiter) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(base, "/"))
	client.SetTimeout(timeout)

	if limiter != nil {
		limiter.Register(LimiterKey, cfg.RatePerSec, cfg.Burst)
	}
	return &Client{http: client, apiKey: cfg.APIKey, limiter: limiter}
}

// FetchSeries returns the observations of seriesID in [start, end] ordered by date.
// Missing values (".") are dropped.
func (c *Client) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]models.SeriesPoint, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fred %s: api key not configured: %w", seriesID, models.ErrProviderUnavailable)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, LimiterKey); err != nil {
			return nil, fmt.Errorf("fred %s: %w: %v", seriesID, models.ErrProviderUnavailable, err)
		}
	}

	var body observationsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":         seriesID,
			"api_key":           c.apiKey,
			"file_type":         "json",
			"observation_start": start.Format(dateLayout),
			"observation_end":   end.Format(dateLayout),
		}).
		SetResult(&body).
		Get("/fred/series/observations")
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w: %v", seriesID, models.ErrProviderUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fred %s: status %d: %w", seriesID, resp.StatusCode(), models.ErrProviderUnavailable)
	}
	if body.ErrorMessage != "" {
		return nil, fmt.Errorf("fred %s: %s: %w", seriesID, body.ErrorMessage, models.ErrProviderUnavailable)
	}

	return parseObservations(body.Observations), nil
}

func parseObservations(obs []observation) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, len(obs))
	for _, o := range obs {
		day, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(o.Value), 64)
		if err != nil {
			continue
		}
		points = append(points, models.SeriesPoint{Date: day, Value: v})
	}
	return points
}
