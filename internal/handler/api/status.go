package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	models "github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/internal/services/fusion"
	xhttp "github.com/lian220/quintiq-backend/pkg/http"
	xlogger "github.com/lian220/quintiq-backend/pkg/logger"
	"github.com/lian220/quintiq-backend/pkg/util"
)

// HealthCheck pings one backing dependency.
type HealthCheck func(ctx context.Context) error

// StatusHandler serves the read-only status surface.
type StatusHandler struct {
	logger   *xlogger.Logger
	service  string
	topics   []string
	outcomes domrepo.OutcomeReader
	verdicts domrepo.VerdictStore
	scores   domrepo.ScoreStore
	fuser    *fusion.Fuser
	checks   map[string]HealthCheck
	now      func() time.Time
}

func NewStatusHandler(
	logger *xlogger.Logger,
	service string,
	topics []string,
	outcomes domrepo.OutcomeReader,
	verdicts domrepo.VerdictStore,
	scores domrepo.ScoreStore,
	fuser *fusion.Fuser,
	checks map[string]HealthCheck,
) *StatusHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &StatusHandler{
		logger:   logger,
		service:  service,
		topics:   topics,
		outcomes: outcomes,
		verdicts: verdicts,
		scores:   scores,
		fuser:    fuser,
		checks:   checks,
		now:      time.Now,
	}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.GET("/status/:kind", h.KindStatus)
	g.GET("/verdicts", h.Verdicts)
	g.GET("/recommendations", h.Recommendations)
}

func (h *StatusHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"service":   h.service,
		"topics":    h.topics,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Health reports "alive" when every dependency answers, "degraded" with 503 otherwise.
func (h *StatusHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "alive"
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("dependency", name), xlogger.Error(err))
			deps[name] = "error: " + err.Error()
			status = "degraded"
			continue
		}
		deps[name] = "ok"
	}

	code := http.StatusOK
	if status != "alive" {
		code = http.StatusServiceUnavailable
	}
	return xhttp.DataResponse(c, code, map[string]interface{}{
		"status":       status,
		"dependencies": deps,
		"timestamp":    h.now().UTC().Format(time.RFC3339),
	})
}

func (h *StatusHandler) Status(c echo.Context) error {
	if h.outcomes == nil {
		return xhttp.SuccessResponse(c, map[models.RequestKind]models.PipelineOutcome{})
	}
	last, err := h.outcomes.LastOutcomes(c.Request().Context())
	if err != nil {
		h.logger.Error("status: last outcomes", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("outcome cache unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, last)
}

// KindStatus returns the last outcome of one request kind.
func (h *StatusHandler) KindStatus(c echo.Context) error {
	kind, ok := models.ParseRequestKind(c.Param("kind"))
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("unknown request kind %q", c.Param("kind")))
	}
	if h.outcomes == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no outcome recorded for %s", kind))
	}
	last, err := h.outcomes.LastOutcomes(c.Request().Context())
	if err != nil {
		h.logger.Error("status: last outcomes", xlogger.String("kind", string(kind)), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("outcome cache unavailable").WithError(err))
	}
	outcome, ok := last[kind]
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no outcome recorded for %s", kind))
	}
	return xhttp.SuccessResponse(c, outcome)
}

func (h *StatusHandler) Verdicts(c echo.Context) error {
	req := &models.VerdictsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date := h.dateOrToday(req.Date)

	rows, err := h.verdicts.FindVerdicts(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("verdicts query error", xlogger.String("date", date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, storeError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Recommendations fuses the stored verdicts and scores for a date on read.
func (h *StatusHandler) Recommendations(c echo.Context) error {
	req := &models.RecommendationsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	date := h.dateOrToday(req.Date)

	verdicts, err := h.verdicts.FindVerdicts(ctx, date)
	if err != nil {
		h.logger.Error("recommendations: verdicts", xlogger.String("date", date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, storeError(err))
	}
	scores, err := h.scores.FindScores(ctx, date)
	if err != nil {
		h.logger.Error("recommendations: scores", xlogger.String("date", date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, storeError(err))
	}

	res := h.fuser.Fuse(verdicts, scores)
	recommended := res.Recommended()
	items := res.Ranked
	if req.RecommendedOnly {
		items = recommended
	}
	if len(items) > req.Limit {
		items = items[:req.Limit]
	}

	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, &models.RecommendationsResponse{
		Date:             date,
		Total:            len(res.Ranked),
		RecommendedCount: len(recommended),
		Items:            items,
	})
}

func (h *StatusHandler) dateOrToday(date string) string {
	if date != "" {
		return date
	}
	return models.FormatDate(util.Day(h.now()))
}

func storeError(err error) error {
	if errors.Is(err, models.ErrStorageUnavailable) {
		return xhttp.UnavailableError("storage unavailable").WithError(err)
	}
	return xhttp.InternalError("query failed").WithError(err)
}
