package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lian220/quintiq-backend/internal/domain/models"
	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	"github.com/lian220/quintiq-backend/internal/handler/api"
	internalrepo "github.com/lian220/quintiq-backend/internal/repository"
	"github.com/lian220/quintiq-backend/internal/service/alphavantage"
	"github.com/lian220/quintiq-backend/internal/service/cached"
	"github.com/lian220/quintiq-backend/internal/service/fred"
	"github.com/lian220/quintiq-backend/internal/service/ratelimit"
	"github.com/lian220/quintiq-backend/internal/service/slack"
	"github.com/lian220/quintiq-backend/internal/service/yahoo"
	"github.com/lian220/quintiq-backend/internal/services/fusion"
	"github.com/lian220/quintiq-backend/internal/usecase"
	"github.com/lian220/quintiq-backend/pkg/cache"
	pkgch "github.com/lian220/quintiq-backend/pkg/clickhouse"
	"github.com/lian220/quintiq-backend/pkg/config"
	xhttp "github.com/lian220/quintiq-backend/pkg/http"
	pkgkafka "github.com/lian220/quintiq-backend/pkg/kafka"
	applogger "github.com/lian220/quintiq-backend/pkg/logger"
	"github.com/lian220/quintiq-backend/pkg/metrics"
	"github.com/lian220/quintiq-backend/pkg/queue"
	"github.com/lian220/quintiq-backend/pkg/server"
	"github.com/lian220/quintiq-backend/pkg/util"
)

const serviceName = "quantiq-data-engine"

// Engine is the in-process pipeline used by the CLI.
type Engine struct {
	Dispatcher *usecase.Dispatcher
	Logger     *applogger.Logger
}

// ProvideLogger creates the application logger. When the collector is enabled,
// repeated errors are aggregated and shipped to Kafka.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collector.Enabled && cfg.Logging.Collector.Topic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.Interval,
			CountThreshold: cfg.Logging.Collector.CountThreshold,
			Topic:          cfg.Logging.Collector.Topic,
			Publisher:      producer,
		})
	}
	return l, l.RemoveCollector, nil
}

// ProvideMetrics registers the pipeline collectors on the default registry served at /metrics.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideClickHouseClient connects and creates the tables owned by the stores.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	instruments := internalrepo.NewCHInstrumentStore(client, nil)
	err = internalrepo.InitSchema(ctx, client,
		internalrepo.NewCHDailyStore(client, nil),
		instruments,
		internalrepo.NewCHAnalysisStore(client, nil),
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	if err := instruments.SaveInstruments(ctx, configuredInstruments(cfg)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("register instruments: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates the producer shared by outcome events and the log collector.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideCache returns Redis when enabled, otherwise an in-process cache.
// The in-process cache also serves as the aggregation lock for a single replica.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		l.Warn("redis disabled, using in-memory cache and lock")
		c := cache.NewMemoryCache(cache.WithMemoryLimits(10000, time.Minute))
		return c, func() { _ = c.Close() }, nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, 0),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, func() { _ = c.Close() }, nil
}

func ProvideLocker(c cache.Service) domrepo.Locker {
	return c
}

func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

func ProvideMacroProvider(cfg *config.Config, lim *ratelimit.Limiter, c cache.Service) domrepo.MacroProvider {
	p := cfg.Providers.FRED
	return cached.Macro(fred.New(p, lim), c, p.CacheTTL)
}

func ProvidePriceProvider(cfg *config.Config, lim *ratelimit.Limiter, c cache.Service) domrepo.PriceProvider {
	p := cfg.Providers.Yahoo
	return cached.Prices(yahoo.New(p, lim), c, p.CacheTTL)
}

func ProvideNewsProvider(cfg *config.Config, lim *ratelimit.Limiter, c cache.Service) domrepo.NewsProvider {
	p := cfg.Providers.AlphaVantage
	return cached.News(alphavantage.New(p, cfg.Pipeline.SentimentArticleLimit, lim), c, p.CacheTTL)
}

func ProvideNotifier(cfg *config.Config, l *applogger.Logger) domrepo.Notifier {
	return slack.New(slack.Config{
		BotToken:   cfg.Slack.BotToken,
		WebhookURL: cfg.Slack.WebhookURL,
		Channel:    cfg.Slack.Channel,
		APIURL:     cfg.Slack.APIURL,
		Timeout:    cfg.Slack.Timeout,
	}, l)
}

func ProvideDailyStore(ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHDailyStore {
	return internalrepo.NewCHDailyStore(ch, l)
}

func ProvideInstrumentStore(ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHInstrumentStore {
	return internalrepo.NewCHInstrumentStore(ch, l)
}

func ProvideAnalysisStore(ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHAnalysisStore {
	return internalrepo.NewCHAnalysisStore(ch, l)
}

// ProvideOutcomeCache keeps outcomes for a week; the status surface only needs the latest.
func ProvideOutcomeCache(c cache.Service) *internalrepo.OutcomeCache {
	return internalrepo.NewOutcomeCache(c, 7*24*time.Hour)
}

func ProvideOutcomeStream(l *applogger.Logger) *api.OutcomeStream {
	return api.NewOutcomeStream(l)
}

// ProvideOutcomePublisher fans outcomes out to Kafka, the status cache and websocket clients.
func ProvideOutcomePublisher(cfg *config.Config, l *applogger.Logger, producer *pkgkafka.Producer,
	oc *internalrepo.OutcomeCache, stream *api.OutcomeStream) domrepo.OutcomePublisher {
	return internalrepo.NewMultiPublisher(l,
		internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic),
		oc,
		stream,
	)
}

// ProvideEngineOutcomePublisher is the CLI variant without websocket clients.
func ProvideEngineOutcomePublisher(cfg *config.Config, l *applogger.Logger, producer *pkgkafka.Producer,
	oc *internalrepo.OutcomeCache) domrepo.OutcomePublisher {
	return internalrepo.NewMultiPublisher(l,
		internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic),
		oc,
	)
}

func ProvideFuser(cfg *config.Config) *fusion.Fuser {
	f := cfg.Pipeline.Fusion
	return fusion.New(fusion.Config{
		TechnicalWeight: f.TechnicalWeight,
		SentimentWeight: f.SentimentWeight,
		Threshold:       f.Threshold,
	})
}

func ProvideAggregator(cfg *config.Config, instruments domrepo.InstrumentStore, daily domrepo.DailyStore,
	macro domrepo.MacroProvider, prices domrepo.PriceProvider, locker domrepo.Locker,
	m domrepo.Metrics, l *applogger.Logger) *usecase.Aggregator {
	return usecase.NewAggregator(usecase.AggregatorConfig{
		LookbackDays: cfg.Pipeline.AggregationLookbackDays,
		LockTTL:      cfg.Pipeline.AggregationLockTTL,
	}, instruments, daily, macro, prices, locker, m, l)
}

func ProvideAnalyzer(cfg *config.Config, instruments domrepo.InstrumentStore, daily domrepo.DailyStore,
	verdicts domrepo.VerdictStore, m domrepo.Metrics, l *applogger.Logger) *usecase.Analyzer {
	return usecase.NewAnalyzer(usecase.AnalyzerConfig{
		WindowDays:      cfg.Pipeline.AnalysisWindowDays,
		MinObservations: cfg.Pipeline.MinObservations,
	}, instruments, daily, verdicts, m, l)
}

func ProvideScorer(cfg *config.Config, instruments domrepo.InstrumentStore, news domrepo.NewsProvider,
	scores domrepo.ScoreStore, m domrepo.Metrics, l *applogger.Logger) *usecase.Scorer {
	return usecase.NewScorer(usecase.ScorerConfig{
		WindowDays: cfg.Pipeline.SentimentWindowDays,
	}, instruments, news, scores, m, l)
}

func ProvideCombined(a *usecase.Analyzer, s *usecase.Scorer, f *fusion.Fuser, l *applogger.Logger) *usecase.Combined {
	return usecase.NewCombined(a, s, f, l)
}

func ProvideDispatcher(cfg *config.Config, agg *usecase.Aggregator, a *usecase.Analyzer, s *usecase.Scorer,
	c *usecase.Combined, n domrepo.Notifier, pub domrepo.OutcomePublisher, m domrepo.Metrics,
	l *applogger.Logger) *usecase.Dispatcher {
	return usecase.NewDispatcher(agg, a, s, c, n, pub, cfg.RetryFor, m, l)
}

// ProvideKafkaConsumer creates the request consumer with one handler per request topic.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, d *usecase.Dispatcher) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TracingHook(), pkgkafka.LoggingHook(l)))
	for _, h := range usecase.NewKafkaRequestHandlers(cfg, d) {
		consumer.RegisterHandler(h)
	}
	return consumer, nil
}

// ProvideQueue builds the Redis request queue. It is nil unless both the
// queue and Redis are enabled.
func ProvideQueue(cfg *config.Config, l *applogger.Logger, c cache.Service, d *usecase.Dispatcher) *queue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}
	rc, ok := c.(*cache.RedisCache)
	if !ok {
		l.Warn("queue enabled but redis is disabled, scheduled requests run in process")
		return nil
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Queue.KeyPrefix))
	q.RegisterJobs(usecase.NewPipelineJobs(d)...)
	return q
}

func ProvideScheduler(cfg *config.Config, d *usecase.Dispatcher, q *queue.RedisQueue, l *applogger.Logger) (*usecase.Scheduler, error) {
	var pub queue.Publisher
	if q != nil {
		pub = q
	}
	return usecase.NewScheduler(cfg.Schedule, d, pub, l)
}

// ProvideHealthChecks pings ClickHouse and, when enabled, Redis.
func ProvideHealthChecks(ch *pkgch.Client, c cache.Service) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{"clickhouse": ch.Health}
	if rc, ok := c.(*cache.RedisCache); ok {
		checks["redis"] = func(ctx context.Context) error { return rc.Client().Ping(ctx).Err() }
	}
	return checks
}

func ProvideStatusHandler(cfg *config.Config, l *applogger.Logger, oc *internalrepo.OutcomeCache,
	store *internalrepo.CHAnalysisStore, f *fusion.Fuser, checks map[string]api.HealthCheck) *api.StatusHandler {
	byKind := usecase.RequestTopics(cfg)
	topics := make([]string, 0, len(byKind))
	for _, kind := range models.RequestKinds {
		topics = append(topics, byKind[kind])
	}
	return api.NewStatusHandler(l, serviceName, topics, oc, store, store, f, checks)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, status *api.StatusHandler, stream *api.OutcomeStream) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
	}
	return xhttp.NewServer(xhttp.Handlers{status, stream}, l,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithCORS(cfg.Server.CORSOrigins),
	)
}

// ProvideApp assembles the long-running components. The queue starts before
// the consumer and the scheduler, the HTTP server last.
func ProvideApp(cfg *config.Config, l *applogger.Logger, consumer *pkgkafka.Consumer, q *queue.RedisQueue,
	sched *usecase.Scheduler, srv *xhttp.Server) *server.App {
	app := server.New(l, cfg.Server.ShutdownTimeout)
	if q != nil {
		app.Add("redis-queue", q)
	}
	app.Add("kafka-consumer", consumer)
	if sched.Entries() > 0 {
		app.Add("scheduler", sched)
	}
	app.Add("http-server", srv)
	return app
}

func ProvideEngine(d *usecase.Dispatcher, l *applogger.Logger) *Engine {
	return &Engine{Dispatcher: d, Logger: l}
}

// configuredInstruments lists the instruments declared in config; they are
// registered as active when the schema is initialized.
func configuredInstruments(cfg *config.Config) []models.Instrument {
	list := make([]models.Instrument, 0, len(cfg.Instruments))
	for _, in := range cfg.Instruments {
		list = append(list, models.Instrument{
			Kind: models.SourceClass(in.Kind),
			Code: util.NormalizeTicker(in.Code),
			Name: in.Name,
		})
	}
	return list
}
