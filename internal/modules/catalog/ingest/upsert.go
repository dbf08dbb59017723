package ingest

import (
	"context"

	"github.com/eskrenkovic/catalog-ingest/internal/clock"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/repository"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"go.uber.org/zap"
)

type Upserted struct {
	ID      int64
	Created bool
}

// Upserter inserts a product unless its slug is already stored and resolves
// to the stored id either way.
type Upserter struct {
	repository *repository.ProductRepository
	clock      clock.Clock
	logger     *zap.Logger
}

func NewUpserter(repository *repository.ProductRepository, clock clock.Clock, logger *zap.Logger) *Upserter {
	return &Upserter{repository: repository, clock: clock, logger: logger}
}

func (u *Upserter) Upsert(ctx context.Context, a sink.Adapter, p domain.Product, refs References) (Upserted, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return Upserted{}, err
	}

	categoryID, err := refs.Category(p.Category)
	if err != nil {
		return Upserted{}, err
	}
	p.CategoryID = categoryID

	p.BrandID = refs.Brand(p.Brand)
	if p.Brand != "" && p.BrandID == nil {
		u.logger.Warn("unknown brand, storing product without one", zap.String("slug", p.Slug), zap.String("brand", p.Brand))
	}

	encoded, serializationErrs := repository.EncodeProduct(p)
	for _, err := range serializationErrs {
		u.logger.Warn("storing NULL for unserializable field", zap.String("slug", p.Slug), zap.Error(err))
	}

	result, err := a.InsertUnlessConflict(
		ctx,
		repository.ProductsTable,
		repository.ProductInsertColumns,
		repository.Slug,
		encoded.InsertArgs(u.clock.Now())...,
	)
	if err != nil {
		return Upserted{}, err
	}

	created := result.AffectedRows > 0
	if created && result.HasInsertedID {
		return Upserted{ID: result.InsertedID, Created: true}, nil
	}

	// Either the slug was already stored or the driver did not report the id.
	// A row deleted concurrently between the two statements ends up here as a
	// conflict resolution failure.
	id, found, err := u.repository.FindProductID(ctx, a, p.Slug)
	if err != nil {
		return Upserted{}, err
	}
	if !found {
		return Upserted{}, core.ConflictResolutionFailure(p.Slug)
	}

	return Upserted{ID: id, Created: created}, nil
}
