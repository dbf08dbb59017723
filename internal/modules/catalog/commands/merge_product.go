package commands

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/merge"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
)

type MergeProductCommand struct {
	ProductID int64
	Patch     domain.Patch
}

func (c MergeProductCommand) Name() string {
	return "merge_product"
}

func (c MergeProductCommand) Validate() error {
	if c.ProductID <= 0 {
		return fmt.Errorf("invalid ProductID - '%d': %w", c.ProductID, core.ErrValidation)
	}

	return nil
}

type MergeProductCommandHandler struct {
	engine *merge.Engine
}

// NewMergeProductCommandHandler takes a nil engine when the configured sink
// cannot be merged into; every request is then rejected.
func NewMergeProductCommandHandler(engine *merge.Engine) *MergeProductCommandHandler {
	return &MergeProductCommandHandler{engine}
}

func (h *MergeProductCommandHandler) Handle(
	ctx context.Context,
	request MergeProductCommand,
) (merge.Reconciled, error) {
	if h.engine == nil {
		return merge.Reconciled{}, core.NewCommandError(
			core.CodeInvalidRequest,
			core.InvalidConfig("merge needs a relational sink"),
		)
	}

	reconciled, err := h.engine.Merge(ctx, request.ProductID, request.Patch)
	if err != nil {
		return merge.Reconciled{}, core.CommandErrorFrom(err)
	}

	return reconciled, nil
}
