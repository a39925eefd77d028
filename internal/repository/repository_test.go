package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	"github.com/lian220/quintiq-backend/pkg/cache"
)

func partial(date string, class models.SourceClass, kv map[string]float64) *models.DailyRecord {
	r := models.NewDailyRecord(date)
	for k, v := range kv {
		r.Set(class, k, v)
	}
	return r
}

func TestMergeDailyIsIdempotent(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	p := partial("2024-05-01", models.SourceMacro, map[string]float64{"cpi": 310.2})

	first, changed, inserted := mergeDaily(nil, "2024-05-01", p, now)
	if !changed || !inserted {
		t.Fatalf("first merge should insert the record")
	}
	second, changed, inserted := mergeDaily(first, "2024-05-01", p, now.Add(time.Hour))
	if changed || inserted {
		t.Fatalf("re-applying the same partial must be a no-op")
	}
	if second.MacroIndicators["cpi"] != 310.2 {
		t.Fatalf("unexpected record %+v", second)
	}
}

func TestMergeDailyIsCommutativeAcrossClasses(t *testing.T) {
	now := time.Now()
	macro := partial("2024-05-01", models.SourceMacro, map[string]float64{"unrate": 3.9})
	market := partial("2024-05-01", models.SourceMarket, map[string]float64{"sp500": 5000})

	a, _, _ := mergeDaily(nil, "2024-05-01", macro, now)
	a, _, _ = mergeDaily(a, "2024-05-01", market, now)
	b, _, _ := mergeDaily(nil, "2024-05-01", market, now)
	b, _, _ = mergeDaily(b, "2024-05-01", macro, now)

	sa, sb := snapshot(a), snapshot(b)
	if sa.macro["unrate"] != sb.macro["unrate"] || sa.market["sp500"] != sb.market["sp500"] {
		t.Fatalf("merge order changed the result: %+v vs %+v", sa, sb)
	}
	if len(sa.macro) != 1 || len(sa.market) != 1 {
		t.Fatalf("unexpected maps %+v", sa)
	}
}

func TestMergeDailyNeverDropsKeys(t *testing.T) {
	now := time.Now()
	cur, _, _ := mergeDaily(nil, "2024-05-01", partial("2024-05-01", models.SourceInstrument, map[string]float64{"AAPL": 180}), now)
	next, changed, inserted := mergeDaily(cur, "2024-05-01", partial("2024-05-01", models.SourceInstrument, map[string]float64{"MSFT": 410}), now)
	if !changed {
		t.Fatalf("new key should change the record")
	}
	if inserted {
		t.Fatalf("merging into an existing record is not an insert")
	}
	if next.InstrumentPrices["AAPL"].ClosePrice != 180 || next.InstrumentPrices["MSFT"].ClosePrice != 410 {
		t.Fatalf("unexpected prices %+v", next.InstrumentPrices)
	}
}

func TestMergeDailyEmptyPartialIsNoop(t *testing.T) {
	if _, changed, _ := mergeDaily(nil, "2024-05-01", models.NewDailyRecord("2024-05-01"), time.Now()); changed {
		t.Fatalf("empty partial must not write")
	}
}

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func TestKafkaEventPublisherEnvelope(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaEventPublisher(fp, "quantiq.analysis.completed")
	out := models.PipelineOutcome{RequestID: "r-1", Kind: models.KindAggregate, Status: models.StatusFailed, Error: "boom"}
	if err := p.PublishOutcome(context.Background(), out); err != nil {
		t.Fatalf("PublishOutcome: %v", err)
	}
	if fp.topic != "quantiq.analysis.completed" || string(fp.key) != "r-1" {
		t.Fatalf("unexpected topic/key %s/%s", fp.topic, fp.key)
	}
	ev, ok := fp.value.(models.Event)
	if !ok {
		t.Fatalf("expected models.Event, got %T", fp.value)
	}
	if ev.EventType != "ECONOMIC_DATA_UPDATE_FAILED" || ev.Version != "1.0" || ev.EventID == "" {
		t.Fatalf("unexpected envelope %+v", ev)
	}
	raw, _ := json.Marshal(ev)
	var decoded map[string]interface{}
	_ = json.Unmarshal(raw, &decoded)
	if decoded["source"] != models.EventSource {
		t.Fatalf("unexpected source in %s", raw)
	}
}

func TestOutcomeCacheKeepsLastPerKind(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	oc := NewOutcomeCache(mc, 0)
	ctx := context.Background()

	_ = oc.PublishOutcome(ctx, models.PipelineOutcome{RequestID: "a", Kind: models.KindTechnical, Status: models.StatusFailed})
	_ = oc.PublishOutcome(ctx, models.PipelineOutcome{RequestID: "b", Kind: models.KindTechnical, Status: models.StatusSuccess})

	last, err := oc.LastOutcomes(ctx)
	if err != nil {
		t.Fatalf("LastOutcomes: %v", err)
	}
	if len(last) != 1 || last[models.KindTechnical].RequestID != "b" {
		t.Fatalf("unexpected outcomes %+v", last)
	}
}

type recordingSink struct {
	got []string
	err error
}

func (r *recordingSink) PublishOutcome(_ context.Context, o models.PipelineOutcome) error {
	r.got = append(r.got, o.RequestID)
	return r.err
}

func TestMultiPublisherReachesEverySink(t *testing.T) {
	failing := &recordingSink{err: errors.New("down")}
	ok := &recordingSink{}
	m := NewMultiPublisher(nil, failing, nil, ok)

	err := m.PublishOutcome(context.Background(), models.PipelineOutcome{RequestID: "r"})
	if err == nil {
		t.Fatalf("expected first sink error")
	}
	if len(ok.got) != 1 || len(failing.got) != 1 {
		t.Fatalf("every sink should be called: %v %v", failing.got, ok.got)
	}
}
