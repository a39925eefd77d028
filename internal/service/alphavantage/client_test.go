package alphavantage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/pkg/config"
)

const feedBody = `{"feed":[
 {"title":"A","url":"u1","time_published":"20240110T153000",
  "ticker_sentiment":[{"ticker":"AAPL","relevance_score":"0.9","ticker_sentiment_score":"0.4"},
                      {"ticker":"MSFT","relevance_score":"0.2","ticker_sentiment_score":"-0.1"}]},
 {"title":"B","url":"u2","time_published":"20240111T090000",
  "ticker_sentiment":[{"ticker":"AAPL","relevance_score":"0.5","ticker_sentiment_score":"bad"}]}]}`

func TestFetchArticlesParsesFeed(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"function":  q.Get("function"),
			"tickers":   q.Get("tickers"),
			"time_from": q.Get("time_from"),
			"limit":     q.Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	c := New(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"}, 0, nil)
	since := time.Date(2024, 1, 8, 17, 0, 0, 0, time.UTC)
	articles, err := c.FetchArticles(context.Background(), "AAPL", since)
	if err != nil {
		t.Fatalf("FetchArticles: %v", err)
	}

	if got["function"] != "NEWS_SENTIMENT" || got["tickers"] != "AAPL" || got["time_from"] != "20240108T0000" || got["limit"] != "100" {
		t.Fatalf("unexpected query %v", got)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if len(articles[0].Tickers) != 2 || articles[0].Tickers[0].Score != 0.4 {
		t.Fatalf("unexpected tickers %+v", articles[0].Tickers)
	}
	if len(articles[1].Tickers) != 0 {
		t.Fatalf("unparseable score should be dropped, got %+v", articles[1].Tickers)
	}
	if articles[0].PublishedAt.Hour() != 15 {
		t.Fatalf("unexpected publish time %v", articles[0].PublishedAt)
	}
}

func TestFetchArticlesQuotaMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Information":"rate limit reached"}`))
	}))
	defer srv.Close()

	c := New(config.ProviderConfig{BaseURL: srv.URL, APIKey: "k"}, 10, nil)
	_, err := c.FetchArticles(context.Background(), "AAPL", time.Now())
	if !errors.Is(err, models.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
