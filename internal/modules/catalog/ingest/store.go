package ingest

import (
	"context"

	"github.com/eskrenkovic/catalog-ingest/internal/clock"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/repository"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Store is what the orchestrator drives for one sink.
type Store interface {
	Kind() sink.Kind
	// Reset empties the product collection before a forced run.
	Reset(ctx context.Context) error
	References(ctx context.Context) References
	Save(ctx context.Context, p domain.Product, refs References) (Upserted, error)
	Finalize(ctx context.Context) error
}

var _ Store = (*RelationalStore)(nil)

type RelationalStore struct {
	adapter      sink.Adapter
	resolver     *Resolver
	upserter     *Upserter
	synchronizer *Synchronizer
	logger       *zap.Logger
}

func NewRelationalStore(
	adapter sink.Adapter,
	resolver *Resolver,
	upserter *Upserter,
	synchronizer *Synchronizer,
	logger *zap.Logger,
) *RelationalStore {
	return &RelationalStore{
		adapter:      adapter,
		resolver:     resolver,
		upserter:     upserter,
		synchronizer: synchronizer,
		logger:       logger,
	}
}

func (s *RelationalStore) Kind() sink.Kind {
	return s.adapter.Dialect().Kind
}

// Reset deletes images, variants and products in that order. References are kept.
func (s *RelationalStore) Reset(ctx context.Context) error {
	return s.adapter.InTx(ctx, func(ctx context.Context, tx sink.Adapter) error {
		for _, table := range []string{repository.ImagesTable, repository.VariantsTable, repository.ProductsTable} {
			if _, err := tx.Execute(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *RelationalStore) References(ctx context.Context) References {
	return s.resolver.Resolve(ctx, s.adapter)
}

// Save upserts the product and, when it was newly created, synchronizes its
// children in the same transaction. A product already stored keeps its
// children; use force or a merge to replace them.
func (s *RelationalStore) Save(ctx context.Context, p domain.Product, refs References) (Upserted, error) {
	var upserted Upserted

	err := s.adapter.InTx(ctx, func(ctx context.Context, tx sink.Adapter) error {
		var err error
		upserted, err = s.upserter.Upsert(ctx, tx, p, refs)
		if err != nil || !upserted.Created {
			return err
		}

		if _, err := s.synchronizer.SyncVariants(ctx, tx, upserted.ID, p.PriceVariants); err != nil {
			return err
		}

		_, err = s.synchronizer.SyncImages(ctx, tx, upserted.ID, p.Images)
		return err
	})
	if err != nil {
		return Upserted{}, err
	}

	if !upserted.Created {
		s.logger.Info(
			"product already stored, children not re-synced",
			zap.String("slug", p.Normalize().Slug),
			zap.Int64("id", upserted.ID),
			zap.Int("variants", len(p.PriceVariants)),
			zap.Int("images", len(p.Images)),
		)
	}

	return upserted, nil
}

func (s *RelationalStore) Finalize(context.Context) error {
	return nil
}

var _ Store = (*StaticStore)(nil)

type StaticStore struct {
	files  *sink.JSONFile
	clock  clock.Clock
	logger *zap.Logger
}

func NewStaticStore(files *sink.JSONFile, clock clock.Clock, logger *zap.Logger) *StaticStore {
	return &StaticStore{files: files, clock: clock, logger: logger}
}

func (s *StaticStore) Kind() sink.Kind {
	return sink.KindJSON
}

func (s *StaticStore) Reset(context.Context) error {
	s.files.Reset()
	return nil
}

func (s *StaticStore) References(context.Context) References {
	return PassThroughReferences()
}

// Save stores the normalized product unless its slug is already held.
func (s *StaticStore) Save(_ context.Context, p domain.Product, refs References) (Upserted, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return Upserted{}, err
	}

	if _, err := refs.Category(p.Category); err != nil {
		return Upserted{}, err
	}

	if id, found := s.files.Lookup(p.Slug); found {
		return Upserted{ID: id}, nil
	}

	logger := s.logger.With(zap.String("slug", p.Slug))

	now := s.clock.Now()
	p.ID = s.files.NextID()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.PriceVariants = PrepareVariants(logger, p.StockUnit, p.PriceVariants)
	p.Images = PrepareImages(logger, p.Images)

	for i := range p.PriceVariants {
		p.PriceVariants[i].ProductID = p.ID
	}
	for i := range p.Images {
		p.Images[i].ProductID = p.ID
	}

	for _, err := range dropInvalidBlobs(&p) {
		logger.Warn("storing null for unserializable field", zap.Error(err))
	}

	body, err := json.Marshal(p)
	if err != nil {
		return Upserted{}, core.SerializationFailure("product", err)
	}

	result := s.files.Put(sink.Document{
		ID:       p.ID,
		Slug:     p.Slug,
		Category: p.Category,
		Featured: p.Featured,
		Body:     body,
	})

	return Upserted{ID: result.InsertedID, Created: result.AffectedRows > 0}, nil
}

func (s *StaticStore) Finalize(ctx context.Context) error {
	return s.files.Finalize(ctx)
}

// dropInvalidBlobs clears every blob that would fail to serialize.
func dropInvalidBlobs(p *domain.Product) []error {
	var errs []error

	if _, err := repository.EncodeBlob(repository.Cannabinoids, p.Cannabinoids); err != nil {
		p.Cannabinoids = nil
		errs = append(errs, err)
	}
	if _, err := repository.EncodeBlob(repository.Terpenes, p.Terpenes); err != nil {
		p.Terpenes = nil
		errs = append(errs, err)
	}
	if _, err := repository.EncodeBlob(repository.StrainInfo, p.Strain); err != nil {
		p.Strain = nil
		errs = append(errs, err)
	}
	if _, err := repository.EncodeBlob(repository.TherapeuticInfo, p.Therapeutic); err != nil {
		p.Therapeutic = nil
		errs = append(errs, err)
	}
	if _, err := repository.EncodeBlob(repository.UsageInfo, p.Usage); err != nil {
		p.Usage = nil
		errs = append(errs, err)
	}
	if _, err := repository.EncodeBlob(repository.SafetyInfo, p.Safety); err != nil {
		p.Safety = nil
		errs = append(errs, err)
	}
	if _, err := repository.EncodeDocument(repository.Specifications, p.Specifications); err != nil {
		p.Specifications = nil
		errs = append(errs, err)
	}
	if _, err := repository.EncodeDocument(repository.Attributes, p.Attributes); err != nil {
		p.Attributes = nil
		errs = append(errs, err)
	}

	return errs
}
