package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// RetryPolicy controls whether a failed request is handed back to its transport for redelivery.
type RetryPolicy struct {
	Retry       bool          `yaml:"retry"`
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffMin  time.Duration `yaml:"backoff_min"`
	BackoffMax  time.Duration `yaml:"backoff_max"`
}

// ProviderConfig describes one outbound data provider.
type ProviderConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	RatePerSec float64       `yaml:"rate_per_sec"`
	Burst      int           `yaml:"burst"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Logging     struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		Output    string `yaml:"output"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic"`
			Interval       time.Duration `yaml:"interval"`
			CountThreshold int           `yaml:"count_threshold"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		EventsTopic  string   `yaml:"events_topic"`
		Topics       struct {
			Aggregate string `yaml:"aggregate"`
			Technical string `yaml:"technical"`
			Sentiment string `yaml:"sentiment"`
			Combined  string `yaml:"combined"`
		} `yaml:"topics"`
		Producer struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string `yaml:"group_id"`
			Workers    int    `yaml:"workers"`
			BufferSize int    `yaml:"buffer_size"`
			DLQTopic   string `yaml:"dlq_topic"`
			MinBytes   int    `yaml:"min_bytes"`
			MaxBytes   int    `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled      bool   `yaml:"enabled"`
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		Password     string `yaml:"password"`
		DB           int    `yaml:"db"`
		Prefix       string `yaml:"prefix"`
		PoolSize     int    `yaml:"pool_size"`
		MinIdleConns int    `yaml:"min_idle_conns"`
	} `yaml:"redis"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		KeyPrefix  string        `yaml:"key_prefix"`
	} `yaml:"queue"`
	Providers struct {
		FRED         ProviderConfig `yaml:"fred"`
		AlphaVantage ProviderConfig `yaml:"alpha_vantage"`
		Yahoo        ProviderConfig `yaml:"yahoo"`
	} `yaml:"providers"`
	Pipeline struct {
		AggregationLookbackDays int           `yaml:"aggregation_lookback_days"`
		AnalysisWindowDays      int           `yaml:"analysis_window_days"`
		MinObservations         int           `yaml:"min_observations"`
		SentimentWindowDays     int           `yaml:"sentiment_window_days"`
		SentimentArticleLimit   int           `yaml:"sentiment_article_limit"`
		AggregationLockTTL      time.Duration `yaml:"aggregation_lock_ttl"`
		Fusion                  struct {
			TechnicalWeight float64 `yaml:"technical_weight"`
			SentimentWeight float64 `yaml:"sentiment_weight"`
			Threshold       float64 `yaml:"threshold"`
		} `yaml:"fusion"`
	} `yaml:"pipeline"`
	Retry map[string]RetryPolicy `yaml:"retry"`
	Slack struct {
		BotToken   string        `yaml:"bot_token"`
		WebhookURL string        `yaml:"webhook_url"`
		Channel    string        `yaml:"channel"`
		APIURL     string        `yaml:"api_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"slack"`
	Schedule map[string]string `yaml:"schedule"`
	// Instruments are registered as active when the schema is initialized.
	Instruments []InstrumentConfig `yaml:"instruments"`
}

// InstrumentConfig is one tracked series: kind is macro, market or instrument.
type InstrumentConfig struct {
	Kind string `yaml:"kind"`
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env files when present, then the YAML config, and
// overrides secrets and endpoints from environment variables.
func LoadWithEnv(path string) (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.Providers.FRED.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Slack.WebhookURL = v
	}
	if v := os.Getenv("SLACK_CHANNEL"); v != "" {
		c.Slack.Channel = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			fmt.Sscanf(port, "%d", &c.Redis.Port)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.CORSOrigins == nil {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "quantiq.analysis.completed"
	}
	if c.Kafka.Topics.Aggregate == "" {
		c.Kafka.Topics.Aggregate = "economic.data.update.request"
	}
	if c.Kafka.Topics.Technical == "" {
		c.Kafka.Topics.Technical = "analysis.technical.request"
	}
	if c.Kafka.Topics.Sentiment == "" {
		c.Kafka.Topics.Sentiment = "analysis.sentiment.request"
	}
	if c.Kafka.Topics.Combined == "" {
		c.Kafka.Topics.Combined = "analysis.combined.request"
	}
	if c.Kafka.Consumer.GroupID == "" {
		c.Kafka.Consumer.GroupID = "quantiq-data-engine"
	}
	if c.Kafka.Consumer.Workers == 0 {
		c.Kafka.Consumer.Workers = 1
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "quantiq"
	}
	if c.Queue.KeyPrefix == "" {
		c.Queue.KeyPrefix = "quantiq:queue"
	}
	if c.Providers.FRED.BaseURL == "" {
		c.Providers.FRED.BaseURL = "https://api.stlouisfed.org"
	}
	if c.Providers.AlphaVantage.BaseURL == "" {
		c.Providers.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	for _, p := range []*ProviderConfig{&c.Providers.FRED, &c.Providers.AlphaVantage, &c.Providers.Yahoo} {
		if p.Timeout == 0 {
			p.Timeout = 30 * time.Second
		}
		if p.Burst == 0 {
			p.Burst = 1
		}
	}
	if c.Providers.FRED.RatePerSec == 0 {
		c.Providers.FRED.RatePerSec = 2
	}
	if c.Providers.Yahoo.RatePerSec == 0 {
		c.Providers.Yahoo.RatePerSec = 2
	}
	if c.Providers.AlphaVantage.RatePerSec == 0 {
		// free tier allows 5 calls per minute
		c.Providers.AlphaVantage.RatePerSec = 1.0 / 12
	}
	if c.Pipeline.AggregationLookbackDays == 0 {
		c.Pipeline.AggregationLookbackDays = 365
	}
	if c.Pipeline.AnalysisWindowDays == 0 {
		c.Pipeline.AnalysisWindowDays = 180
	}
	if c.Pipeline.MinObservations == 0 {
		c.Pipeline.MinObservations = 50
	}
	if c.Pipeline.SentimentWindowDays == 0 {
		c.Pipeline.SentimentWindowDays = 3
	}
	if c.Pipeline.SentimentArticleLimit == 0 {
		c.Pipeline.SentimentArticleLimit = 100
	}
	if c.Pipeline.AggregationLockTTL == 0 {
		c.Pipeline.AggregationLockTTL = 30 * time.Minute
	}
	if c.Pipeline.Fusion.TechnicalWeight == 0 && c.Pipeline.Fusion.SentimentWeight == 0 {
		c.Pipeline.Fusion.TechnicalWeight = 0.7
		c.Pipeline.Fusion.SentimentWeight = 0.3
	}
	if c.Pipeline.Fusion.Threshold == 0 {
		c.Pipeline.Fusion.Threshold = 0.6
	}
	if c.Retry == nil {
		c.Retry = make(map[string]RetryPolicy)
	}
	if _, ok := c.Retry["aggregate"]; !ok {
		c.Retry["aggregate"] = RetryPolicy{Retry: true, MaxAttempts: 3, BackoffMin: time.Second, BackoffMax: 30 * time.Second}
	}
	if c.Slack.Channel == "" {
		c.Slack.Channel = "#trading-alerts"
	}
	if c.Slack.APIURL == "" {
		c.Slack.APIURL = "https://slack.com/api/chat.postMessage"
	}
	if c.Slack.Timeout == 0 {
		c.Slack.Timeout = 5 * time.Second
	}
}

// RetryFor returns the policy configured for a request kind. Kinds without
// an entry are not retried.
func (c *Config) RetryFor(kind string) RetryPolicy {
	if p, ok := c.Retry[kind]; ok {
		if p.MaxAttempts <= 0 {
			p.MaxAttempts = 1
		}
		return p
	}
	return RetryPolicy{MaxAttempts: 1}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty")
	}
	if c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required")
	}
	if c.Pipeline.MinObservations < 1 {
		return fmt.Errorf("pipeline.min_observations must be positive, got %d", c.Pipeline.MinObservations)
	}
	if c.Pipeline.AggregationLookbackDays < 1 {
		return fmt.Errorf("pipeline.aggregation_lookback_days must be positive, got %d", c.Pipeline.AggregationLookbackDays)
	}
	f := c.Pipeline.Fusion
	if f.TechnicalWeight < 0 || f.SentimentWeight < 0 || f.TechnicalWeight+f.SentimentWeight > 1.0000001 {
		return fmt.Errorf("pipeline.fusion weights must be non-negative and sum to at most 1")
	}
	for kind := range c.Retry {
		switch kind {
		case "aggregate", "technical", "sentiment", "combined":
		default:
			return fmt.Errorf("retry: unknown request kind '%s'", kind)
		}
	}
	for i, in := range c.Instruments {
		switch in.Kind {
		case "macro", "market", "instrument":
		default:
			return fmt.Errorf("instruments[%d]: unknown kind '%s'", i, in.Kind)
		}
		if in.Code == "" {
			return fmt.Errorf("instruments[%d]: code is required", i)
		}
	}
	for kind := range c.Schedule {
		switch kind {
		case "aggregate", "technical", "sentiment", "combined":
		default:
			return fmt.Errorf("schedule: unknown request kind '%s'", kind)
		}
	}
	return nil
}
