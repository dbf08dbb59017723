package app

import (
	"context"

	"github.com/eskrenkovic/catalog-ingest/internal/clock"
	"github.com/eskrenkovic/catalog-ingest/internal/config"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/commands"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/ingest"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/merge"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/repository"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"
	sqlmigration "github.com/eskrenkovic/catalog-ingest/internal/sql-migrations"

	"github.com/eskrenkovic/mediator-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App acts as the composition root. Handlers are registered on the global
// mediator, so one process builds one App.
type App struct {
	config   config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	sql      *sink.SQL
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	kind, err := sink.ParseKind(cfg.Sink.Mode)
	if err != nil {
		return nil, core.InvalidConfig("%s", err.Error())
	}

	logger = logger.With(zap.String("sink", string(kind)))

	a := &App{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	realClock := clock.NewRealClock()
	repo := repository.NewProductRepository(logger)
	resolver := ingest.NewResolver(repo, logger)
	synchronizer := ingest.NewSynchronizer(repo, logger)

	var (
		store   ingest.Store
		adapter sink.Adapter
		engine  *merge.Engine
	)

	if kind == sink.KindJSON {
		files, err := sink.OpenJSONFile(cfg.Sink.OutputDir, realClock, logger)
		if err != nil {
			return nil, err
		}

		store = ingest.NewStaticStore(files, realClock, logger)
	} else {
		a.sql, err = openRelational(ctx, kind, cfg, logger)
		if err != nil {
			return nil, err
		}

		adapter = a.sql
		upserter := ingest.NewUpserter(repo, realClock, logger)
		store = ingest.NewRelationalStore(adapter, resolver, upserter, synchronizer, logger)
		engine = merge.NewEngine(adapter, repo, synchronizer, realClock, logger)
	}

	orchestratorOpts := []ingest.OrchestratorOption{
		ingest.WithMetrics(ingest.NewMetrics(a.registry)),
	}
	if cfg.Ingest.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.Ingest.RateLimit), max(cfg.Ingest.Burst, 1))
		orchestratorOpts = append(orchestratorOpts, ingest.WithRateLimiter(limiter))
	}

	orchestrator := ingest.NewOrchestrator(store, logger, orchestratorOpts...)

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: logger}
	requestValidationBehavior := core.RequestValidationBehavior{}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	// handler registration

	ingestProductsHandler := commands.NewIngestProductsCommandHandler(orchestrator, resolver, adapter, logger)
	err = mediator.RegisterRequestHandler[commands.IngestProductsCommand, commands.IngestProductsResponse](
		ingestProductsHandler,
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	mergeProductHandler := commands.NewMergeProductCommandHandler(engine)
	err = mediator.RegisterRequestHandler[commands.MergeProductCommand, merge.Reconciled](
		mergeProductHandler,
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	logger.Info("catalog ingestion ready", zap.String("environment", cfg.Environment))

	return a, nil
}

func openRelational(ctx context.Context, kind sink.Kind, cfg config.Config, logger *zap.Logger) (*sink.SQL, error) {
	dialect := sink.DialectFor(kind)

	dsn := sink.SQLiteDSN(cfg.Sink.DBPath)
	if kind == sink.KindPostgres {
		dsn = cfg.Sink.Postgres.ConnectionString()
	}

	adapter, err := sink.OpenSQL(ctx, dialect, dsn, sink.ConnectOptions{
		Retries:    cfg.Connect.Retries,
		RetryDelay: cfg.Connect.RetryDelay,
	}, logger)
	if err != nil {
		return nil, err
	}

	scripts, err := sqlmigration.Scripts(kind)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}

	if err := sqlmigration.Run(ctx, adapter.DB(), dialect, scripts); err != nil {
		_ = adapter.Close()
		return nil, err
	}

	return adapter, nil
}

// Ingest sends the command through the mediator pipeline.
func (a *App) Ingest(ctx context.Context, command commands.IngestProductsCommand) (commands.IngestProductsResponse, error) {
	return mediator.Send[commands.IngestProductsCommand, commands.IngestProductsResponse](ctx, command)
}

func (a *App) Merge(ctx context.Context, command commands.MergeProductCommand) (merge.Reconciled, error) {
	return mediator.Send[commands.MergeProductCommand, merge.Reconciled](ctx, command)
}

// WriteMetrics writes the gathered metrics to the configured file, if any.
func (a *App) WriteMetrics() error {
	if a.config.MetricsFile == "" {
		return nil
	}

	return prometheus.WriteToTextfile(a.config.MetricsFile, a.registry)
}

func (a *App) Close() error {
	if a.sql == nil {
		return nil
	}
	return a.sql.Close()
}
