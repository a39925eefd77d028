package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
)

type fakeInstruments struct {
	byKind map[models.SourceClass][]models.Instrument
	err    error
}

func (f *fakeInstruments) FindActive(_ context.Context, kind models.SourceClass) ([]models.Instrument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byKind[kind], nil
}

type fakeDaily struct {
	mu        sync.Mutex
	records   map[string]*models.DailyRecord
	upsertErr error
	findErr   error
}

func newFakeDaily() *fakeDaily { return &fakeDaily{records: make(map[string]*models.DailyRecord)} }

func (f *fakeDaily) UpsertDaily(_ context.Context, date string, partial *models.DailyRecord) (bool, error) {
	if f.upsertErr != nil {
		return false, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[date]
	if !ok {
		r = models.NewDailyRecord(date)
		f.records[date] = r
	}
	r.Merge(partial)
	return !ok, nil
}

func (f *fakeDaily) FindDailyRange(_ context.Context, start, end time.Time) ([]*models.DailyRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.DailyRecord
	for d, r := range f.records {
		t, _ := models.ParseDate(d)
		if t.Before(start) || t.After(end) {
			continue
		}
		out = append(out, r)
	}
	models.SortDailyRecords(out)
	return out, nil
}

// seriesProvider serves both macro and price fetches from fixed data.
type seriesProvider struct {
	series map[string][]models.SeriesPoint
	fail   map[string]bool
}

func (p *seriesProvider) get(code string) ([]models.SeriesPoint, error) {
	if p.fail[code] {
		return nil, models.ErrProviderUnavailable
	}
	return p.series[code], nil
}

func (p *seriesProvider) FetchSeries(_ context.Context, id string, _, _ time.Time) ([]models.SeriesPoint, error) {
	return p.get(id)
}

func (p *seriesProvider) FetchCloses(_ context.Context, ticker string, _, _ time.Time, _ string) ([]models.SeriesPoint, error) {
	return p.get(ticker)
}

type fakeNews struct {
	articles map[string][]models.Article
	fail     map[string]bool
}

func (f *fakeNews) FetchArticles(_ context.Context, ticker string, _ time.Time) ([]models.Article, error) {
	if f.fail[ticker] {
		return nil, models.ErrProviderUnavailable
	}
	return f.articles[ticker], nil
}

type fakeAnalysisStore struct {
	verdicts []models.TechnicalVerdict
	scores   []models.SentimentScore
	err      error
}

func (f *fakeAnalysisStore) UpsertVerdict(_ context.Context, v *models.TechnicalVerdict) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.verdicts = append(f.verdicts, *v)
	return true, nil
}

func (f *fakeAnalysisStore) FindVerdicts(context.Context, string) ([]models.TechnicalVerdict, error) {
	return f.verdicts, f.err
}

func (f *fakeAnalysisStore) UpsertScore(_ context.Context, s *models.SentimentScore) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.scores = append(f.scores, *s)
	return true, nil
}

func (f *fakeAnalysisStore) FindScores(context.Context, string) ([]models.SentimentScore, error) {
	return f.scores, f.err
}

type recordingNotifier struct {
	events []string
	err    error
}

func (n *recordingNotifier) NotifyStart(context.Context, models.PipelineRequest, string) error {
	n.events = append(n.events, "start")
	return n.err
}

func (n *recordingNotifier) NotifySuccess(context.Context, models.PipelineRequest, string) error {
	n.events = append(n.events, "success")
	return n.err
}

func (n *recordingNotifier) NotifyError(_ context.Context, _ models.PipelineRequest, msg string) error {
	n.events = append(n.events, "error")
	return n.err
}

type recordingPublisher struct {
	outcomes []models.PipelineOutcome
}

func (p *recordingPublisher) PublishOutcome(_ context.Context, o models.PipelineOutcome) error {
	p.outcomes = append(p.outcomes, o)
	return nil
}

type fakeLocker struct {
	held     bool
	released bool
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (string, bool, error) {
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "token", true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, _ string, token string) error {
	if token != "token" {
		return errors.New("not owner")
	}
	l.held = false
	l.released = true
	return nil
}

var fixedNow = time.Date(2024, 6, 28, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// dailyPoints returns n consecutive daily points ending at end.
func dailyPoints(end time.Time, n int, start, step float64) []models.SeriesPoint {
	out := make([]models.SeriesPoint, n)
	for i := 0; i < n; i++ {
		out[i] = models.SeriesPoint{Date: end.AddDate(0, 0, i-n+1), Value: start + step*float64(i)}
	}
	return out
}
