package ingest

import (
	"context"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/repository"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"go.uber.org/zap"
)

// Synchronizer replaces a product's variants or images as a whole. Each call
// deletes and re-inserts inside one transaction, so an empty slice clears
// the collection.
type Synchronizer struct {
	repository *repository.ProductRepository
	logger     *zap.Logger
}

func NewSynchronizer(repository *repository.ProductRepository, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{repository: repository, logger: logger}
}

// SyncVariants returns the number of variants written. Invalid variants are
// logged and skipped.
func (s *Synchronizer) SyncVariants(ctx context.Context, a sink.Adapter, productID int64, variants []domain.PriceVariant) (int, error) {
	written := 0

	err := a.InTx(ctx, func(ctx context.Context, tx sink.Adapter) error {
		stockUnit, err := s.repository.StockUnit(ctx, tx, productID)
		if err != nil {
			return err
		}

		if _, err := tx.Execute(ctx, "DELETE FROM product_price_variants WHERE product_id = ?", productID); err != nil {
			return err
		}

		prepared := PrepareVariants(s.logger.With(zap.Int64("product_id", productID)), stockUnit, variants)
		for _, variant := range prepared {
			_, err := tx.Insert(
				ctx,
				repository.VariantsTable,
				repository.VariantInsertColumns,
				repository.VariantInsertArgs(productID, variant)...,
			)
			if err != nil {
				return err
			}
		}

		written = len(prepared)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return written, nil
}

// SyncImages returns the number of images written. Exactly one stored image
// is primary when any image is valid.
func (s *Synchronizer) SyncImages(ctx context.Context, a sink.Adapter, productID int64, images []domain.ProductImage) (int, error) {
	prepared := PrepareImages(s.logger.With(zap.Int64("product_id", productID)), images)

	err := a.InTx(ctx, func(ctx context.Context, tx sink.Adapter) error {
		if err := s.repository.RequireProduct(ctx, tx, productID); err != nil {
			return err
		}

		if _, err := tx.Execute(ctx, "DELETE FROM product_images WHERE product_id = ?", productID); err != nil {
			return err
		}

		for _, image := range prepared {
			_, err := tx.Insert(
				ctx,
				repository.ImagesTable,
				repository.ImageInsertColumns,
				repository.ImageInsertArgs(productID, image)...,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(prepared), nil
}

// PrepareVariants drops invalid variants and applies defaults to the rest.
func PrepareVariants(logger *zap.Logger, stockUnit string, variants []domain.PriceVariant) []domain.PriceVariant {
	prepared := make([]domain.PriceVariant, 0, len(variants))

	for i, variant := range variants {
		if err := variant.Validate(); err != nil {
			logger.Warn("skipping invalid price variant", zap.Int("index", i), zap.Error(err))
			continue
		}

		prepared = append(prepared, variant.WithDefaults(stockUnit))
	}

	return prepared
}

// PrepareImages drops images without a url and orders the rest.
func PrepareImages(logger *zap.Logger, images []domain.ProductImage) []domain.ProductImage {
	valid := make([]domain.ProductImage, 0, len(images))

	for i, image := range images {
		if err := image.Validate(); err != nil {
			logger.Warn("skipping invalid image", zap.Int("index", i), zap.Error(err))
			continue
		}

		valid = append(valid, image)
	}

	return domain.ArrangeImages(valid)
}
