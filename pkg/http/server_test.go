package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
}

func allowOrigin(t *testing.T, s *Server, origin string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, origin)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("ping: %d", rec.Code)
	}
	return rec.Header().Get(echo.HeaderAccessControlAllowOrigin)
}

func TestServerCORSOrigins(t *testing.T) {
	s := NewServer(pingHandler{}, nil, WithMetricsPath(""), WithCORS([]string{"https://dash.example.com"}))
	if got := allowOrigin(t, s, "https://dash.example.com"); got != "https://dash.example.com" {
		t.Fatalf("allowed origin header = %q", got)
	}
	if got := allowOrigin(t, s, "https://other.example.com"); got != "" {
		t.Fatalf("unlisted origin should get no header, got %q", got)
	}

	off := NewServer(pingHandler{}, nil, WithMetricsPath(""), WithCORS(nil))
	if got := allowOrigin(t, off, "https://dash.example.com"); got != "" {
		t.Fatalf("CORS disabled but header set: %q", got)
	}
}
