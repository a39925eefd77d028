package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/pkg/logger"
	"github.com/lian220/quintiq-backend/pkg/metrics"
	"github.com/lian220/quintiq-backend/pkg/util"
)

// resolveDate parses an optional YYYY-MM-DD date, defaulting to today (UTC).
func resolveDate(s string, now func() time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return util.Day(now()), nil
	}
	return models.ParseDate(s)
}

func orNopMetrics(m domrepo.Metrics) domrepo.Metrics {
	if m == nil {
		return metrics.Nop{}
	}
	return m
}

func orNopLogger(l *logger.Logger) *logger.Logger {
	if l == nil {
		return logger.Nop()
	}
	return l
}

type nopNotifier struct{}

func (nopNotifier) NotifyStart(context.Context, models.PipelineRequest, string) error   { return nil }
func (nopNotifier) NotifySuccess(context.Context, models.PipelineRequest, string) error { return nil }
func (nopNotifier) NotifyError(context.Context, models.PipelineRequest, string) error   { return nil }
