package ingest

import (
	"context"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/repository"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"go.uber.org/zap"
)

// References maps category and brand slugs to sink ids for one batch.
// Pass-through references keep slugs as they are and resolve nothing.
type References struct {
	Categories  map[string]int64
	Brands      map[string]int64
	PassThrough bool
}

func PassThroughReferences() References {
	return References{
		Categories:  map[string]int64{},
		Brands:      map[string]int64{},
		PassThrough: true,
	}
}

// Category returns the id for slug, or zero for pass-through references.
func (r References) Category(slug string) (int64, error) {
	slug = domain.Slugify(slug)
	if slug == "" {
		return 0, core.ReferenceNotFound("category", slug)
	}

	if r.PassThrough {
		return 0, nil
	}

	id, found := r.Categories[slug]
	if !found {
		return 0, core.ReferenceNotFound("category", slug)
	}

	return id, nil
}

// Brand returns nil for an empty or unknown slug; a product without a brand is valid.
func (r References) Brand(slug string) *int64 {
	slug = domain.Slugify(slug)
	if slug == "" || r.PassThrough {
		return nil
	}

	id, found := r.Brands[slug]
	if !found {
		return nil
	}

	return &id
}

type Resolver struct {
	repository *repository.ProductRepository
	logger     *zap.Logger
}

func NewResolver(repository *repository.ProductRepository, logger *zap.Logger) *Resolver {
	return &Resolver{repository: repository, logger: logger}
}

// Resolve runs one query per reference table. A failed query leaves that map
// empty; every product then fails its own category check.
func (r *Resolver) Resolve(ctx context.Context, a sink.Adapter) References {
	if !a.Dialect().Relational() {
		return PassThroughReferences()
	}

	refs := References{
		Categories: map[string]int64{},
		Brands:     map[string]int64{},
	}

	categories, err := r.repository.SlugIndex(ctx, a, repository.CategoriesTable)
	if err != nil {
		r.logger.Warn("failed to load category references", zap.Error(err))
	} else {
		refs.Categories = categories
	}

	brands, err := r.repository.SlugIndex(ctx, a, repository.BrandsTable)
	if err != nil {
		r.logger.Warn("failed to load brand references", zap.Error(err))
	} else {
		refs.Brands = brands
	}

	r.logger.Debug(
		"references resolved",
		zap.Int("categories", len(refs.Categories)),
		zap.Int("brands", len(refs.Brands)),
	)

	return refs
}

// Seed stores the given categories and brands, leaving known slugs untouched,
// and returns how many were created.
func (r *Resolver) Seed(ctx context.Context, a sink.Adapter, categories []domain.Category, brands []domain.Brand) (int, error) {
	created := 0

	err := a.InTx(ctx, func(ctx context.Context, tx sink.Adapter) error {
		for _, category := range categories {
			category.Slug = domain.Slugify(category.Slug)
			if category.Slug == "" {
				category.Slug = domain.Slugify(category.Name)
			}
			if category.Name == "" {
				category.Name = category.Slug
			}
			if category.Slug == "" {
				r.logger.Warn("skipping category without slug or name")
				continue
			}

			_, isNew, err := r.repository.SaveCategory(ctx, tx, category)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
		}

		for _, brand := range brands {
			brand.Slug = domain.Slugify(brand.Slug)
			if brand.Slug == "" {
				brand.Slug = domain.Slugify(brand.Name)
			}
			if brand.Name == "" {
				brand.Name = brand.Slug
			}
			if brand.Slug == "" {
				r.logger.Warn("skipping brand without slug or name")
				continue
			}

			_, isNew, err := r.repository.SaveBrand(ctx, tx, brand)
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}
