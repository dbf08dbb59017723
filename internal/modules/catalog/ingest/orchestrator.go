package ingest

import (
	"context"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Options struct {
	Force          bool
	CategoryFilter string
}

// Result counts one run. A product whose slug was already stored is
// Unchanged: it is neither inserted nor skipped.
type Result struct {
	RunID     string `json:"run_id"`
	Total     int    `json:"total"`
	Inserted  int    `json:"inserted"`
	Unchanged int    `json:"unchanged"`
	Skipped   int    `json:"skipped"`
}

type Orchestrator struct {
	store   Store
	limiter *rate.Limiter
	metrics *Metrics
	logger  *zap.Logger
}

type OrchestratorOption func(*Orchestrator)

func WithRateLimiter(limiter *rate.Limiter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.limiter = limiter
	}
}

func WithMetrics(metrics *Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

func NewOrchestrator(store Store, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{store: store, logger: logger}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Run ingests products one at a time. Per-product failures are logged and
// counted as skipped. An error is returned only when the forced reset fails,
// when ctx ends, or when finalizing the sink fails; the counts gathered so
// far are returned with it.
func (o *Orchestrator) Run(ctx context.Context, products []domain.Product, opts Options) (Result, error) {
	started := time.Now()
	sinkKind := string(o.store.Kind())

	runID := core.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = core.WithRunID(ctx, runID)
	}

	logger := o.logger.With(zap.String("run_id", runID), zap.String("sink", sinkKind))

	selected := FilterByCategory(products, opts.CategoryFilter)
	result := Result{RunID: runID, Total: len(selected)}

	logger.Info(
		"starting batch ingestion",
		zap.Int("received", len(products)),
		zap.Int("selected", len(selected)),
		zap.Bool("force", opts.Force),
		zap.String("category_filter", opts.CategoryFilter),
	)

	if opts.Force {
		if err := o.store.Reset(ctx); err != nil {
			logger.Error("failed to reset sink", zap.Error(err))
			return result, err
		}
		logger.Warn("sink reset before ingestion")
	}

	refs := o.store.References(ctx)

	for i, product := range selected {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		if err := ctx.Err(); err != nil {
			return result, err
		}

		upserted, err := o.store.Save(ctx, product, refs)
		switch {
		case err != nil && ctx.Err() != nil:
			return result, ctx.Err()
		case err != nil:
			result.Skipped++
			o.metrics.recordProduct(sinkKind, OutcomeSkipped)
			logger.Warn(
				"skipping product",
				zap.Int("index", i),
				zap.String("slug", product.Slug),
				zap.Error(err),
			)
		case upserted.Created:
			result.Inserted++
			o.metrics.recordProduct(sinkKind, OutcomeInserted)
		default:
			result.Unchanged++
			o.metrics.recordProduct(sinkKind, OutcomeUnchanged)
			logger.Debug("product already stored", zap.String("slug", product.Slug), zap.Int64("id", upserted.ID))
		}
	}

	if err := o.store.Finalize(ctx); err != nil {
		logger.Error("failed to finalize sink", zap.Error(err))
		return result, err
	}

	o.metrics.recordBatch(sinkKind, time.Since(started))

	logger.Info(
		"batch ingestion finished",
		zap.Int("total", result.Total),
		zap.Int("inserted", result.Inserted),
		zap.Int("unchanged", result.Unchanged),
		zap.Int("skipped", result.Skipped),
		zap.Duration("elapsed", time.Since(started)),
	)

	return result, nil
}

// FilterByCategory keeps products whose category, slugified the same way the
// resolver looks it up, matches filter. An empty filter keeps everything.
func FilterByCategory(products []domain.Product, filter string) []domain.Product {
	if filter == "" {
		return products
	}

	wanted := domain.Slugify(filter)
	return core.Filter(products, func(p domain.Product) bool {
		return domain.Slugify(p.Category) == wanted
	})
}
