package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"
	"github.com/eskrenkovic/catalog-ingest/internal/test"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func insertProduct(t *testing.T, a sink.Adapter, p domain.Product) int64 {
	t.Helper()

	encoded, errs := EncodeProduct(p)
	require.Empty(t, errs)

	id, err := a.Insert(context.Background(), ProductsTable, ProductInsertColumns, encoded.InsertArgs(time.Now().UTC())...)
	require.NoError(t, err)

	return id
}

func Test_EncodeProduct_Stores_Null_For_Invalid_Blob_Only(t *testing.T) {
	// Arrange
	thc := 250.0
	product := domain.Product{
		Slug:         "blue-dream",
		Cannabinoids: &domain.CannabinoidProfile{THC: &thc},
		Strain:       &domain.StrainInfo{Type: domain.StrainHybrid},
		Attributes:   domain.Document{"ratio": math.NaN()},
	}

	// Act
	encoded, errs := EncodeProduct(product)

	// Assert
	require.Len(t, errs, 2)
	for _, err := range errs {
		require.ErrorIs(t, err, core.ErrSerialization)
	}

	require.Nil(t, encoded.Blobs[Cannabinoids])
	require.Nil(t, encoded.Blobs[Attributes])
	require.NotNil(t, encoded.Blobs[StrainInfo])
	require.JSONEq(t, `{"type":"hybrid"}`, *encoded.Blobs[StrainInfo])
	require.Len(t, encoded.InsertArgs(time.Now()), len(ProductInsertColumns))
}

func Test_Load_Returns_Product_With_Children(t *testing.T) {
	// Arrange
	ctx := context.Background()
	adapter := test.NewSQLiteSink(t)
	categoryID := test.SeedCategory(t, adapter, "flores")
	brandID := test.SeedBrand(t, adapter, "acme")
	thc := 21.5

	id := insertProduct(t, adapter, domain.Product{
		Slug:          "blue-dream",
		Name:          "Blue Dream",
		CategoryID:    categoryID,
		BrandID:       &brandID,
		BasePrice:     decimal.RequireFromString("15000.50"),
		StockQuantity: 12,
		StockUnit:     "g",
		Cannabinoids:  &domain.CannabinoidProfile{THC: &thc},
		Featured:      true,
		Status:        domain.StatusActive,
	})

	_, err := adapter.Insert(ctx, VariantsTable, VariantInsertColumns, VariantInsertArgs(id, domain.PriceVariant{
		Name:     "1g",
		Type:     "weight",
		Quantity: 1,
		Unit:     "g",
		Price:    decimal.NewFromInt(15000),
		Status:   domain.StatusActive,
	})...)
	require.NoError(t, err)

	_, err = adapter.Insert(ctx, ImagesTable, ImageInsertColumns, ImageInsertArgs(id, domain.ProductImage{
		URL:       "https://cdn.example.com/blue-dream.jpg",
		IsPrimary: true,
	})...)
	require.NoError(t, err)

	repository := NewProductRepository(zap.NewNop())

	// Act
	product, err := repository.Load(ctx, adapter, id)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "blue-dream", product.Slug)
	require.Equal(t, "flores", product.Category)
	require.Equal(t, "acme", product.Brand)
	require.True(t, decimal.RequireFromString("15000.5").Equal(product.BasePrice))
	require.Equal(t, 12, product.StockQuantity)
	require.True(t, product.Featured)
	require.NotNil(t, product.Cannabinoids)
	require.Equal(t, 21.5, *product.Cannabinoids.THC)
	require.Nil(t, product.Terpenes)

	require.Len(t, product.PriceVariants, 1)
	require.Equal(t, "1g", product.PriceVariants[0].Name)
	require.False(t, product.PriceVariants[0].CompareAtPrice.Valid)

	require.Len(t, product.Images, 1)
	require.True(t, product.Images[0].IsPrimary)
}

func Test_Load_Reports_Missing_Product(t *testing.T) {
	// Arrange
	adapter := test.NewSQLiteSink(t)
	repository := NewProductRepository(zap.NewNop())

	// Act
	_, err := repository.Load(context.Background(), adapter, 404)

	// Assert
	require.ErrorIs(t, err, core.ErrProductNotFound)
}

func Test_SlugIndex_Maps_Reference_Slugs(t *testing.T) {
	// Arrange
	adapter := test.NewSQLiteSink(t)
	floresID := test.SeedCategory(t, adapter, "flores")
	aceitesID := test.SeedCategory(t, adapter, "aceites")
	repository := NewProductRepository(zap.NewNop())

	// Act
	index, err := repository.SlugIndex(context.Background(), adapter, CategoriesTable)

	// Assert
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"flores": floresID, "aceites": aceitesID}, index)
}

func Test_SaveCategory_Resolves_Existing_Slug(t *testing.T) {
	// Arrange
	ctx := context.Background()
	adapter := test.NewSQLiteSink(t)
	repository := NewProductRepository(zap.NewNop())

	firstID, created, err := repository.SaveCategory(ctx, adapter, domain.Category{Slug: "flores", Name: "Flores"})
	require.NoError(t, err)
	require.True(t, created)

	// Act
	secondID, created, err := repository.SaveCategory(ctx, adapter, domain.Category{Slug: "flores", Name: "Other"})

	// Assert
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, firstID, secondID)
}

func Test_StockUnit_Reports_Missing_Product(t *testing.T) {
	// Arrange
	adapter := test.NewSQLiteSink(t)
	repository := NewProductRepository(zap.NewNop())

	// Act
	_, err := repository.StockUnit(context.Background(), adapter, 1)

	// Assert
	require.ErrorIs(t, err, core.ErrProductNotFound)
}
