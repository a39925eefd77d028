package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordPipelineRun("aggregate", "success", 12.5)
	r.RecordPipelineRun("aggregate", "failed", 1)
	r.RecordRecordsWritten("daily_records", 3)
	r.RecordRecordsWritten("daily_records", 0)
	r.RecordSkipped("analyzer", "insufficient_history")

	if got := testutil.ToFloat64(r.pipelineRuns.WithLabelValues("aggregate", "success")); got != 1 {
		t.Fatalf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(r.recordsWritten.WithLabelValues("daily_records")); got != 3 {
		t.Fatalf("records written = %v", got)
	}
	if got := testutil.ToFloat64(r.lastRun.WithLabelValues("aggregate")); got != 0 {
		t.Fatalf("last run gauge = %v, want 0 after failure", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(1.23456); got != "1.235" {
		t.Fatalf("got %q", got)
	}
}
