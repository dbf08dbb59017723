package ingest

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/repository"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"
	"github.com/eskrenkovic/catalog-ingest/internal/test"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	postgresOnce    sync.Once
	postgresFixture *test.PostgresFixture
	postgresErr     error
)

func TestMain(m *testing.M) {
	code := m.Run()

	if postgresFixture != nil {
		if err := postgresFixture.Stop(context.Background()); err != nil {
			log.Println(err)
		}
	}

	os.Exit(code)
}

func postgresSink(t *testing.T) *sink.SQL {
	t.Helper()

	if testing.Short() || test.SkipInfrastructure() {
		t.Skip("postgres tests need docker")
	}

	postgresOnce.Do(func() {
		postgresFixture, postgresErr = test.StartPostgres(context.Background())
	})
	if postgresErr != nil {
		t.Skipf("postgres container unavailable: %v", postgresErr)
	}

	return test.NewPostgresSink(t, postgresFixture.ConnectionString)
}

func Test_Postgres_Run_Inserts_Product_With_Children(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newRelationalFixture(t, postgresSink(t))
	test.SeedCategory(t, f.adapter, "flores")
	test.SeedCategory(t, f.adapter, "aceites")
	test.SeedCategory(t, f.adapter, "medicinal-flores")
	test.SeedBrand(t, f.adapter, "dutch-passion")

	p := product("cbd-therapy", "medicinal-flores")
	p.Brand = "dutch-passion"
	p.Strain = &domain.StrainInfo{Type: domain.StrainSativa}
	p.PriceVariants = []domain.PriceVariant{{Quantity: 1, Price: decimal.NewFromInt(4500)}}
	p.Images = []domain.ProductImage{{URL: "https://cdn.example.com/cbd.jpg"}}

	orchestrator := NewOrchestrator(f.store, test.Logger(t))

	// Act
	result, err := orchestrator.Run(ctx, []domain.Product{p}, Options{})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, result.Inserted)

	stored, found, err := f.repository.LoadBySlug(ctx, f.adapter, "cbd-therapy")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(3), stored.CategoryID)
	require.NotNil(t, stored.BrandID)
	require.NotNil(t, stored.Strain)
	assert.Equal(t, domain.StrainSativa, stored.Strain.Type)
	assert.Len(t, stored.PriceVariants, 1)
	assert.Len(t, stored.Images, 1)
}

func Test_Postgres_Upsert_Conflict_Resolves_Existing_ID(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newRelationalFixture(t, postgresSink(t))
	test.SeedCategory(t, f.adapter, "flores")

	refs := f.resolver.Resolve(ctx, f.adapter)

	first, err := f.store.Save(ctx, product("og-kush", "flores"), refs)
	require.NoError(t, err)

	// Act
	second, err := f.store.Save(ctx, product("og-kush", "flores"), refs)
	require.NoError(t, err)

	// Assert
	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), countRows(t, f.adapter, repository.ProductsTable))
}
