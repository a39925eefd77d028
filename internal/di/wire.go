//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	domrepo "github.com/lian220/quintiq-backend/internal/domain/repository"
	internalrepo "github.com/lian220/quintiq-backend/internal/repository"
	"github.com/lian220/quintiq-backend/pkg/config"
	"github.com/lian220/quintiq-backend/pkg/metrics"
	"github.com/lian220/quintiq-backend/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideMetrics,
	wire.Bind(new(domrepo.Metrics), new(*metrics.Recorder)),
	ProvideClickHouseClient,
	ProvideCache,
	ProvideLocker,
	ProvideLimiter,
)

var storeSet = wire.NewSet(
	ProvideDailyStore,
	ProvideInstrumentStore,
	ProvideAnalysisStore,
	ProvideOutcomeCache,
	wire.Bind(new(domrepo.DailyStore), new(*internalrepo.CHDailyStore)),
	wire.Bind(new(domrepo.InstrumentStore), new(*internalrepo.CHInstrumentStore)),
	wire.Bind(new(domrepo.VerdictStore), new(*internalrepo.CHAnalysisStore)),
	wire.Bind(new(domrepo.ScoreStore), new(*internalrepo.CHAnalysisStore)),
)

var pipelineSet = wire.NewSet(
	ProvideMacroProvider,
	ProvidePriceProvider,
	ProvideNewsProvider,
	ProvideNotifier,
	ProvideFuser,
	ProvideAggregator,
	ProvideAnalyzer,
	ProvideScorer,
	ProvideCombined,
	ProvideDispatcher,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		storeSet,
		pipelineSet,

		// Outcome fan-out
		ProvideOutcomeStream,
		ProvideOutcomePublisher,

		// Transports
		ProvideKafkaConsumer,
		ProvideQueue,
		ProvideScheduler,

		// HTTP surface
		ProvideHealthChecks,
		ProvideStatusHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeEngine wires the pipeline for synchronous CLI runs.
func InitializeEngine(cfg *config.Config) (*Engine, func(), error) {
	wire.Build(
		infraSet,
		storeSet,
		pipelineSet,
		ProvideEngineOutcomePublisher,
		ProvideEngine,
	)
	return nil, nil, nil
}
