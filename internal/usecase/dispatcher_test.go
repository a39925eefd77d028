package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/internal/services/fusion"
	"github.com/lian220/quintiq-backend/pkg/config"
)

type harness struct {
	instruments *fakeInstruments
	daily       *fakeDaily
	prov        *seriesProvider
	news        *fakeNews
	store       *fakeAnalysisStore
	notifier    *recordingNotifier
	pub         *recordingPublisher
	locker      *fakeLocker
	agg         *Aggregator
	analyzer    *Analyzer
	scorer      *Scorer
	d           *Dispatcher
}

func defaultRetry(kind string) config.RetryPolicy {
	if kind == string(models.KindAggregate) {
		return config.RetryPolicy{Retry: true, MaxAttempts: 3}
	}
	return config.RetryPolicy{MaxAttempts: 1}
}

func newHarness() *harness {
	h := &harness{
		instruments: &fakeInstruments{byKind: map[models.SourceClass][]models.Instrument{}},
		daily:       newFakeDaily(),
		prov:        &seriesProvider{series: map[string][]models.SeriesPoint{}, fail: map[string]bool{}},
		news:        &fakeNews{articles: map[string][]models.Article{}, fail: map[string]bool{}},
		store:       &fakeAnalysisStore{},
		notifier:    &recordingNotifier{},
		pub:         &recordingPublisher{},
		locker:      &fakeLocker{},
	}
	h.agg = NewAggregator(AggregatorConfig{}, h.instruments, h.daily, h.prov, h.prov, h.locker, nil, nil)
	h.agg.now = fixedClock
	h.analyzer = NewAnalyzer(AnalyzerConfig{}, h.instruments, h.daily, h.store, nil, nil)
	h.analyzer.now = fixedClock
	h.scorer = NewScorer(ScorerConfig{}, h.instruments, h.news, h.store, nil, nil)
	h.scorer.now = fixedClock
	combined := NewCombined(h.analyzer, h.scorer, fusion.New(fusion.DefaultConfig), nil)
	h.d = NewDispatcher(h.agg, h.analyzer, h.scorer, combined, h.notifier, h.pub, defaultRetry, nil, nil)
	return h
}

func request(kind models.RequestKind, date string) models.PipelineRequest {
	return models.PipelineRequest{RequestID: "req-1", Kind: kind, Params: models.RequestParams{TargetDate: date, Source: "test"}}
}

func TestDispatchInvalidDateEmitsSingleFailure(t *testing.T) {
	h := newHarness()

	outcome, err := h.d.Dispatch(context.Background(), request(models.KindAggregate, "13-45-2099"))
	if err != nil {
		t.Fatalf("permanent errors must not be returned for retry, got %v", err)
	}
	if outcome.Status != models.StatusFailed || outcome.ErrorKind != "InvalidDateFormat" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(h.pub.outcomes) != 1 || h.pub.outcomes[0].Status != models.StatusFailed {
		t.Fatalf("expected exactly one failure event, got %+v", h.pub.outcomes)
	}
	if got := models.EventTypeFor(outcome.Kind, outcome.Status); got != "ECONOMIC_DATA_UPDATE_FAILED" {
		t.Fatalf("unexpected event type %s", got)
	}
	if len(h.notifier.events) != 2 || h.notifier.events[1] != "error" {
		t.Fatalf("unexpected notifications %v", h.notifier.events)
	}
}

func TestDispatchAggregateSurvivesOneMacroFailure(t *testing.T) {
	h := newHarness()
	end := fixedNow
	var macro []models.Instrument
	for _, code := range []string{"CPIAUCSL", "DGS10", "FEDFUNDS", "GDP", "UNRATE"} {
		macro = append(macro, models.Instrument{Kind: models.SourceMacro, Code: code, Name: code})
		h.prov.series[code] = dailyPoints(end, 3, 1, 1)
	}
	h.prov.fail["GDP"] = true
	h.instruments.byKind[models.SourceMacro] = macro

	outcome, err := h.d.Dispatch(context.Background(), request(models.KindAggregate, "2024-06-28"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if outcome.Status != models.StatusSuccess {
		t.Fatalf("expected success, got %+v", outcome)
	}
	res, ok := outcome.Payload.(models.AggregationResult)
	if !ok {
		t.Fatalf("unexpected payload %T", outcome.Payload)
	}
	if res.PerSourceCounts[models.SourceMacro] != 4 {
		t.Fatalf("expected 4 macro series, got %d", res.PerSourceCounts[models.SourceMacro])
	}
	if res.DatesWritten != 3 {
		t.Fatalf("expected 3 dates written, got %d", res.DatesWritten)
	}
	if got := h.daily.records["2024-06-28"].MacroIndicators; len(got) != 4 {
		t.Fatalf("unexpected stored macro values %v", got)
	}
	if !h.locker.released {
		t.Fatalf("aggregation lock not released")
	}
	if h.notifier.events[len(h.notifier.events)-1] != "success" {
		t.Fatalf("unexpected notifications %v", h.notifier.events)
	}
}

func TestDispatchUnknownKind(t *testing.T) {
	h := newHarness()
	outcome, err := h.d.Dispatch(context.Background(), request("rebalance", ""))
	if err != nil {
		t.Fatalf("unknown kinds are never retried, got %v", err)
	}
	if outcome.ErrorKind != "UnknownRequestKind" || outcome.Status != models.StatusFailed {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(h.notifier.events) != 0 {
		t.Fatalf("unknown kinds are not notified, got %v", h.notifier.events)
	}
	if len(h.pub.outcomes) != 1 || models.EventTypeFor(outcome.Kind, outcome.Status) != "PIPELINE_REQUEST_REJECTED" {
		t.Fatalf("expected one rejection event, got %+v", h.pub.outcomes)
	}
}

func TestOnlyRetryableKindsReturnTheError(t *testing.T) {
	h := newHarness()
	h.instruments.err = models.ErrStorageUnavailable

	_, err := h.d.Dispatch(context.Background(), request(models.KindAggregate, ""))
	if !errors.Is(err, models.ErrStorageUnavailable) {
		t.Fatalf("aggregate failures must be returned, got %v", err)
	}

	for _, kind := range []models.RequestKind{models.KindTechnical, models.KindSentiment, models.KindCombined} {
		outcome, err := h.d.Dispatch(context.Background(), request(kind, ""))
		if err != nil {
			t.Fatalf("%s: error must be swallowed, got %v", kind, err)
		}
		if outcome.Status != models.StatusFailed || outcome.ErrorKind != "StorageUnavailable" {
			t.Fatalf("%s: unexpected outcome %+v", kind, outcome)
		}
	}
	if len(h.pub.outcomes) != 4 {
		t.Fatalf("expected one event per dispatch, got %d", len(h.pub.outcomes))
	}
}

func TestDispatchNotifierFailureDoesNotAbort(t *testing.T) {
	h := newHarness()
	h.notifier.err = errors.New("slack down")

	outcome, err := h.d.Dispatch(context.Background(), request(models.KindSentiment, "2024-06-28"))
	if err != nil || outcome.Status != models.StatusSuccess {
		t.Fatalf("unexpected result %+v %v", outcome, err)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	h := newHarness()
	h.d.Register(models.KindTechnical, func(context.Context, models.PipelineRequest) (Result, error) {
		panic("boom")
	})
	outcome, err := h.d.Dispatch(context.Background(), request(models.KindTechnical, ""))
	if err != nil || outcome.Status != models.StatusFailed {
		t.Fatalf("unexpected result %+v %v", outcome, err)
	}
	if len(h.pub.outcomes) != 1 {
		t.Fatalf("expected one event, got %d", len(h.pub.outcomes))
	}
}

func TestDispatchIsNotDeduplicated(t *testing.T) {
	h := newHarness()
	req := request(models.KindSentiment, "2024-06-28")
	_, _ = h.d.Dispatch(context.Background(), req)
	_, _ = h.d.Dispatch(context.Background(), req)
	if len(h.pub.outcomes) != 2 {
		t.Fatalf("expected two independent outcomes, got %d", len(h.pub.outcomes))
	}
}
