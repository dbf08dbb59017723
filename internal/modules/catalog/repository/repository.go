package repository

import (
	"context"
	"fmt"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"go.uber.org/zap"
)

const selectProduct = `
	SELECT
		p.id, p.slug, p.name, p.short_description, p.description,
		p.category_id, c.slug AS category_slug, p.brand_id, b.slug AS brand_slug,
		p.base_price, p.stock_quantity, p.stock_unit,
		p.cannabinoids, p.terpenes, p.strain_info, p.therapeutic_info,
		p.usage_info, p.safety_info, p.specifications, p.attributes,
		p.featured, p.is_medicinal, p.requires_prescription, p.status,
		p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

// ProductRepository reads products back from a relational sink. Every method
// takes the adapter to run on, so reads can join an open transaction.
type ProductRepository struct {
	logger *zap.Logger
}

func NewProductRepository(logger *zap.Logger) *ProductRepository {
	return &ProductRepository{logger: logger}
}

// Load returns the product with its variants and images.
func (r *ProductRepository) Load(ctx context.Context, a sink.Adapter, id int64) (domain.Product, error) {
	row, found, err := sink.QueryOne[productRow](ctx, a, selectProduct+" WHERE p.id = ?", id)
	if err != nil {
		return domain.Product{}, err
	}
	if !found {
		return domain.Product{}, core.ProductNotFound(id)
	}

	return r.withChildren(ctx, a, row)
}

func (r *ProductRepository) LoadBySlug(ctx context.Context, a sink.Adapter, slug string) (domain.Product, bool, error) {
	row, found, err := sink.QueryOne[productRow](ctx, a, selectProduct+" WHERE p.slug = ?", slug)
	if err != nil || !found {
		return domain.Product{}, false, err
	}

	product, err := r.withChildren(ctx, a, row)
	return product, err == nil, err
}

func (r *ProductRepository) withChildren(ctx context.Context, a sink.Adapter, row productRow) (domain.Product, error) {
	product, decodeErrs := row.toDomain()
	for _, err := range decodeErrs {
		r.logger.Warn("dropping undecodable stored blob", zap.String("slug", row.Slug), zap.Error(err))
	}

	variants, err := r.Variants(ctx, a, product.ID)
	if err != nil {
		return domain.Product{}, err
	}

	images, err := r.Images(ctx, a, product.ID)
	if err != nil {
		return domain.Product{}, err
	}

	product.PriceVariants = variants
	product.Images = images

	return product, nil
}

func (r *ProductRepository) Variants(ctx context.Context, a sink.Adapter, productID int64) ([]domain.PriceVariant, error) {
	const query = `
		SELECT id, product_id, name, variant_type, quantity, unit, price, compare_at_price, is_default, status
		FROM product_price_variants
		WHERE product_id = ?
		ORDER BY id;`

	rows, err := sink.QueryMany[variantRow](ctx, a, query, productID)
	if err != nil {
		return nil, err
	}

	return core.Map(rows, variantRow.toDomain), nil
}

func (r *ProductRepository) Images(ctx context.Context, a sink.Adapter, productID int64) ([]domain.ProductImage, error) {
	const query = `
		SELECT id, product_id, url, alt_text, display_order, is_primary
		FROM product_images
		WHERE product_id = ?
		ORDER BY display_order, id;`

	rows, err := sink.QueryMany[imageRow](ctx, a, query, productID)
	if err != nil {
		return nil, err
	}

	return core.Map(rows, imageRow.toDomain), nil
}

// FindProductID resolves a slug to the stored id.
func (r *ProductRepository) FindProductID(ctx context.Context, a sink.Adapter, slug string) (int64, bool, error) {
	row, found, err := sink.QueryOne[referenceRow](ctx, a, "SELECT id, slug FROM products WHERE slug = ?", slug)
	return row.ID, found, err
}

func (r *ProductRepository) FindReferenceID(ctx context.Context, a sink.Adapter, table string, slug string) (int64, bool, error) {
	query := fmt.Sprintf("SELECT id, slug FROM %s WHERE slug = ?", referenceTable(table))
	row, found, err := sink.QueryOne[referenceRow](ctx, a, query, slug)
	return row.ID, found, err
}

// SlugIndex maps every slug of a reference table to its id.
func (r *ProductRepository) SlugIndex(ctx context.Context, a sink.Adapter, table string) (map[string]int64, error) {
	query := fmt.Sprintf("SELECT id, slug FROM %s", referenceTable(table))

	rows, err := sink.QueryMany[referenceRow](ctx, a, query)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int64, len(rows))
	for _, row := range rows {
		index[row.Slug] = row.ID
	}

	return index, nil
}

func (r *ProductRepository) StockUnit(ctx context.Context, a sink.Adapter, productID int64) (string, error) {
	unit, found, err := sink.QueryOne[string](ctx, a, "SELECT COALESCE(stock_unit, '') FROM products WHERE id = ?", productID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", core.ProductNotFound(productID)
	}
	return unit, nil
}

// RequireProduct fails with ErrProductNotFound when id is not stored.
func (r *ProductRepository) RequireProduct(ctx context.Context, a sink.Adapter, productID int64) error {
	_, found, err := sink.QueryOne[int64](ctx, a, "SELECT id FROM products WHERE id = ?", productID)
	if err != nil {
		return err
	}
	if !found {
		return core.ProductNotFound(productID)
	}
	return nil
}

func (r *ProductRepository) CountProducts(ctx context.Context, a sink.Adapter) (int64, error) {
	count, _, err := sink.QueryOne[int64](ctx, a, "SELECT count(*) FROM products")
	return count, err
}

// SaveCategory stores a category unless its slug is taken and returns the stored id.
func (r *ProductRepository) SaveCategory(ctx context.Context, a sink.Adapter, category domain.Category) (int64, bool, error) {
	return r.saveReference(ctx, a, CategoriesTable, category.Slug,
		[]string{Slug, Name, Description},
		category.Slug, category.Name, nullString(category.Description),
	)
}

func (r *ProductRepository) SaveBrand(ctx context.Context, a sink.Adapter, brand domain.Brand) (int64, bool, error) {
	return r.saveReference(ctx, a, BrandsTable, brand.Slug, []string{Slug, Name}, brand.Slug, brand.Name)
}

func (r *ProductRepository) saveReference(
	ctx context.Context,
	a sink.Adapter,
	table string,
	slug string,
	columns []string,
	args ...any,
) (int64, bool, error) {
	result, err := a.InsertUnlessConflict(ctx, table, columns, Slug, args...)
	if err != nil {
		return 0, false, err
	}

	if result.AffectedRows > 0 && result.HasInsertedID {
		return result.InsertedID, true, nil
	}

	id, found, err := r.FindReferenceID(ctx, a, table, slug)
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, core.ConflictResolutionFailure(slug)
	}

	return id, false, nil
}

func referenceTable(table string) string {
	switch table {
	case CategoriesTable, BrandsTable:
		return table
	default:
		panic(fmt.Sprintf("not a reference table: %s", table))
	}
}
