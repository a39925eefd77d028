package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimal = `
environment: test
kafka:
  brokers: ["localhost:9092"]
clickhouse:
  host: localhost
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Pipeline.AggregationLookbackDays != 365 {
		t.Fatalf("lookback = %d, want 365", c.Pipeline.AggregationLookbackDays)
	}
	if c.Pipeline.AnalysisWindowDays != 180 || c.Pipeline.MinObservations != 50 {
		t.Fatalf("unexpected analysis defaults %+v", c.Pipeline)
	}
	if c.Kafka.Topics.Aggregate != "economic.data.update.request" {
		t.Fatalf("aggregate topic = %q", c.Kafka.Topics.Aggregate)
	}
	if c.Pipeline.Fusion.Threshold != 0.6 {
		t.Fatalf("threshold = %v", c.Pipeline.Fusion.Threshold)
	}
}

func TestRetryForDefaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	agg := c.RetryFor("aggregate")
	if !agg.Retry || agg.MaxAttempts != 3 {
		t.Fatalf("aggregate policy = %+v", agg)
	}
	tech := c.RetryFor("technical")
	if tech.Retry || tech.MaxAttempts != 1 {
		t.Fatalf("technical policy = %+v", tech)
	}
}

func TestRetryOverride(t *testing.T) {
	c, err := Parse([]byte(minimal + `
retry:
  sentiment:
    retry: true
    max_attempts: 2
    backoff_min: 2s
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := c.RetryFor("sentiment")
	if !p.Retry || p.MaxAttempts != 2 || p.BackoffMin != 2*time.Second {
		t.Fatalf("sentiment policy = %+v", p)
	}
}

func TestValidateRejectsUnknownKinds(t *testing.T) {
	if _, err := Parse([]byte(minimal + "schedule:\n  reindex: \"@daily\"\n")); err == nil {
		t.Fatalf("expected error for unknown schedule kind")
	}
	if _, err := Parse([]byte("environment: test\n")); err == nil {
		t.Fatalf("expected error for missing brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FRED_API_KEY", "fred-key")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("REDIS_ADDR", "cache:6380")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Providers.FRED.APIKey != "fred-key" {
		t.Fatalf("fred key = %q", c.Providers.FRED.APIKey)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Fatalf("brokers = %v", c.Kafka.Brokers)
	}
	if c.Redis.Host != "cache" || c.Redis.Port != 6380 {
		t.Fatalf("redis = %s:%d", c.Redis.Host, c.Redis.Port)
	}
}

func TestLoadSampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if len(c.Instruments) == 0 || len(c.Schedule) == 0 {
		t.Fatalf("sample should carry instruments and schedule: %+v", c.Schedule)
	}
	if !c.RetryFor("aggregate").Retry || c.RetryFor("combined").Retry {
		t.Fatalf("unexpected retry policies %+v", c.Retry)
	}
}
