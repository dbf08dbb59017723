package merge

import (
	"context"
	"strings"

	"github.com/eskrenkovic/catalog-ingest/internal/clock"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/ingest"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/repository"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"go.uber.org/zap"
)

// Reconciled is the product as stored after a merge, together with the
// patch fields that were left unapplied.
type Reconciled struct {
	Product  domain.Product          `json:"product"`
	Rejected []domain.FieldRejection `json:"rejected"`
}

type Engine struct {
	adapter      sink.Adapter
	repository   *repository.ProductRepository
	synchronizer *ingest.Synchronizer
	clock        clock.Clock
	logger       *zap.Logger
}

func NewEngine(
	adapter sink.Adapter,
	repository *repository.ProductRepository,
	synchronizer *ingest.Synchronizer,
	clock clock.Clock,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		adapter:      adapter,
		repository:   repository,
		synchronizer: synchronizer,
		clock:        clock,
		logger:       logger,
	}
}

// Merge applies the fields present in patch to the stored product. A field
// that fails validation is rejected on its own and keeps its stored value.
// The update and any child re-syncs commit together; the result is read back
// from the sink afterwards.
func (e *Engine) Merge(ctx context.Context, productID int64, patch domain.Patch) (Reconciled, error) {
	if !e.adapter.Dialect().Relational() {
		return Reconciled{}, core.InvalidConfig("merge needs a relational sink, got %s", e.adapter.Dialect().Kind)
	}

	logger := e.logger.With(zap.Int64("product_id", productID))
	if runID := core.RunID(ctx); runID != "" {
		logger = logger.With(zap.String("run_id", runID))
	}

	if err := e.repository.RequireProduct(ctx, e.adapter, productID); err != nil {
		return Reconciled{}, err
	}

	m := merger{patch: &patch}
	rejected := append([]domain.FieldRejection{}, patch.Rejections...)

	if err := m.collect(ctx, e.adapter, e.repository); err != nil {
		return Reconciled{}, err
	}
	rejected = append(rejected, m.rejected...)

	for _, rejection := range rejected {
		logger.Warn("patch field rejected", zap.String("field", rejection.Field), zap.String("reason", rejection.Reason))
	}

	syncVariants := patch.PriceVariants.Present()
	syncImages := patch.Images.Present()

	if !m.changes.Empty() || syncVariants || syncImages {
		err := e.adapter.InTx(ctx, func(ctx context.Context, tx sink.Adapter) error {
			if err := e.repository.Update(ctx, tx, productID, m.changes, e.clock.Now()); err != nil {
				return err
			}

			if syncVariants {
				variants, _ := patch.PriceVariants.Get()
				if _, err := e.synchronizer.SyncVariants(ctx, tx, productID, variants); err != nil {
					return err
				}
			}

			if syncImages {
				images, _ := patch.Images.Get()
				if _, err := e.synchronizer.SyncImages(ctx, tx, productID, images); err != nil {
					return err
				}
			}

			return nil
		})
		if err != nil {
			return Reconciled{}, err
		}

		logger.Info(
			"product merged",
			zap.Strings("columns", m.changes.Columns()),
			zap.Bool("variants_synced", syncVariants),
			zap.Bool("images_synced", syncImages),
			zap.Int("rejected", len(rejected)),
		)
	} else {
		logger.Info("nothing to merge", zap.Int("rejected", len(rejected)))
	}

	product, err := e.repository.Load(ctx, e.adapter, productID)
	if err != nil {
		return Reconciled{}, err
	}

	return Reconciled{Product: product, Rejected: rejected}, nil
}

// merger turns the accepted fields of a patch into column changes.
type merger struct {
	patch    *domain.Patch
	changes  repository.Changes
	rejected []domain.FieldRejection
}

func (m *merger) reject(field string, reason string) {
	m.rejected = append(m.rejected, domain.FieldRejection{Field: field, Reason: reason})
}

func (m *merger) collect(ctx context.Context, a sink.Adapter, repo *repository.ProductRepository) error {
	p := m.patch

	if name, ok := p.Name.Get(); ok {
		if name = strings.TrimSpace(name); name == "" {
			m.reject("name", "must not be empty")
		} else {
			m.changes.Set(repository.Name, name)
		}
	}

	m.text(repository.ShortDescription, p.ShortDescription)
	m.text(repository.Description, p.Description)
	m.text(repository.StockUnit, p.StockUnit)

	if slug, ok := p.Category.Get(); ok {
		id, found, err := repo.FindReferenceID(ctx, a, repository.CategoriesTable, domain.Slugify(slug))
		if err != nil {
			return err
		}
		if !found {
			m.reject("category", core.ReferenceNotFound("category", slug).Error())
		} else {
			m.changes.Set(repository.CategoryID, id)
		}
	}

	if p.Brand.IsNull() {
		m.changes.Set(repository.BrandID, nil)
	} else if slug, ok := p.Brand.Get(); ok {
		slug = domain.Slugify(slug)
		if slug == "" {
			m.changes.Set(repository.BrandID, nil)
		} else {
			id, found, err := repo.FindReferenceID(ctx, a, repository.BrandsTable, slug)
			if err != nil {
				return err
			}
			if !found {
				m.reject("brand", core.ReferenceNotFound("brand", slug).Error())
			} else {
				m.changes.Set(repository.BrandID, id)
			}
		}
	}

	if price, ok := p.BasePrice.Get(); ok {
		if err := domain.CheckPrice("base_price", price); err != nil {
			m.reject("base_price", err.Error())
		} else {
			m.changes.Set(repository.BasePrice, price)
		}
	}

	if quantity, ok := p.StockQuantity.Get(); ok {
		if err := domain.CheckStockQuantity(quantity); err != nil {
			m.reject("stock_quantity", err.Error())
		} else {
			m.changes.Set(repository.StockQuantity, quantity)
		}
	}

	blob(m, repository.Cannabinoids, p.Cannabinoids)
	blob(m, repository.Terpenes, p.Terpenes)
	blob(m, repository.StrainInfo, p.Strain)
	blob(m, repository.TherapeuticInfo, p.Therapeutic)
	blob(m, repository.UsageInfo, p.Usage)
	blob(m, repository.SafetyInfo, p.Safety)
	m.document(repository.Specifications, p.Specifications)
	m.document(repository.Attributes, p.Attributes)

	m.flag(repository.Featured, p.Featured)
	m.flag(repository.IsMedicinal, p.IsMedicinal)
	m.flag(repository.RequiresPrescription, p.RequiresPrescription)

	if status, ok := p.Status.Get(); ok {
		if !status.Valid() {
			m.reject("status", "unknown status '"+string(status)+"'")
		} else {
			m.changes.Set(repository.Status, string(status))
		}
	}

	return nil
}

func (m *merger) text(column string, value domain.Optional[string]) {
	if value.IsNull() {
		m.changes.Set(column, nil)
		return
	}
	if s, ok := value.Get(); ok {
		m.changes.SetText(column, strings.TrimSpace(s))
	}
}

func (m *merger) flag(column string, value domain.Optional[bool]) {
	if b, ok := value.Get(); ok {
		m.changes.Set(column, b)
	}
}

func (m *merger) document(column string, value domain.Optional[domain.Document]) {
	if value.IsNull() {
		m.changes.Set(column, nil)
		return
	}

	document, ok := value.Get()
	if !ok {
		return
	}

	encoded, err := repository.EncodeDocument(column, document)
	if err != nil {
		m.reject(column, err.Error())
		return
	}
	m.changes.Set(column, encoded)
}

// blob replaces a structured column wholesale; its content is never merged.
func blob[T domain.Blob](m *merger, column string, value domain.Optional[T]) {
	if value.IsNull() {
		m.changes.Set(column, nil)
		return
	}

	v, ok := value.Get()
	if !ok {
		return
	}

	encoded, err := repository.EncodeBlob(column, &v)
	if err != nil {
		m.reject(column, err.Error())
		return
	}
	m.changes.Set(column, encoded)
}
