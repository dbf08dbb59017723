package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/ingest"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"go.uber.org/zap"
)

type IngestProductsCommand struct {
	Products       []domain.Product
	Categories     []domain.Category
	Brands         []domain.Brand
	Force          bool
	CategoryFilter string
}

func (c IngestProductsCommand) Name() string {
	return "ingest_products"
}

func (c IngestProductsCommand) Validate() error {
	if len(c.Products) == 0 && len(c.Categories) == 0 && len(c.Brands) == 0 {
		return fmt.Errorf("nothing to ingest: %w", core.ErrValidation)
	}

	if c.Force && len(c.Products) == 0 {
		return fmt.Errorf("refusing to force an empty batch: %w", core.ErrValidation)
	}

	return nil
}

type IngestProductsResponse struct {
	ingest.Result
	ReferencesCreated int `json:"references_created"`
}

type IngestProductsCommandHandler struct {
	orchestrator *ingest.Orchestrator
	resolver     *ingest.Resolver
	adapter      sink.Adapter
	logger       *zap.Logger
}

// NewIngestProductsCommandHandler takes a nil adapter for the static sink,
// which has no reference tables to seed.
func NewIngestProductsCommandHandler(
	orchestrator *ingest.Orchestrator,
	resolver *ingest.Resolver,
	adapter sink.Adapter,
	logger *zap.Logger,
) *IngestProductsCommandHandler {
	return &IngestProductsCommandHandler{
		orchestrator: orchestrator,
		resolver:     resolver,
		adapter:      adapter,
		logger:       logger,
	}
}

func (h *IngestProductsCommandHandler) Handle(
	ctx context.Context,
	request IngestProductsCommand,
) (IngestProductsResponse, error) {
	var response IngestProductsResponse

	if len(request.Categories) > 0 || len(request.Brands) > 0 {
		if h.adapter == nil {
			h.logger.Warn(
				"static sink has no reference tables, ignoring references",
				zap.Int("categories", len(request.Categories)),
				zap.Int("brands", len(request.Brands)),
			)
		} else {
			created, err := h.resolver.Seed(ctx, h.adapter, request.Categories, request.Brands)
			if err != nil {
				return response, core.CommandErrorFrom(err, core.WithReason("failed to store references"))
			}
			response.ReferencesCreated = created
		}
	}

	result, err := h.orchestrator.Run(ctx, request.Products, ingest.Options{
		Force:          request.Force,
		CategoryFilter: request.CategoryFilter,
	})
	response.Result = result
	if err != nil {
		return response, core.CommandErrorFrom(err, core.WithReason("batch ingestion aborted"))
	}

	return response, nil
}
