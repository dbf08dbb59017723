package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/sink"
	sqlmigration "github.com/eskrenkovic/catalog-ingest/internal/sql-migrations"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresPort     = nat.Port("5432/tcp")
	postgresUser     = "catalog"
	postgresPassword = "catalog"
	postgresDatabase = "catalog"
)

// SkipInfrastructure reports whether tests needing Docker should be skipped.
func SkipInfrastructure() bool {
	return os.Getenv("SKIP_INFRASTRUCTURE") == "true"
}

type PostgresFixture struct {
	container        testcontainers.Container
	ConnectionString string
}

func StartPostgres(ctx context.Context) (*PostgresFixture, error) {
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{string(postgresPort)},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDatabase,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForSQL(postgresPort, "postgres", func(host string, port nat.Port) string {
				return connectionString(host, port)
			}).WithStartupTimeout(time.Minute),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	port, err := container.MappedPort(ctx, postgresPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &PostgresFixture{
		container:        container,
		ConnectionString: connectionString(host, port),
	}, nil
}

func (f *PostgresFixture) Stop(ctx context.Context) error {
	return f.container.Terminate(ctx)
}

func connectionString(host string, port nat.Port) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, port.Port(), postgresDatabase,
	)
}

// NewSQLiteSink opens a migrated SQLite sink in a temporary directory.
func NewSQLiteSink(t testing.TB) *sink.SQL {
	t.Helper()

	dsn := sink.SQLiteDSN(filepath.Join(t.TempDir(), "catalog.db"))
	return openMigrated(t, sink.SQLiteDialect, dsn)
}

// NewPostgresSink opens a migrated Postgres sink with every catalog table emptied.
func NewPostgresSink(t testing.TB, connectionString string) *sink.SQL {
	t.Helper()

	adapter := openMigrated(t, sink.PostgresDialect, connectionString)

	_, err := adapter.Execute(
		context.Background(),
		"TRUNCATE product_images, product_price_variants, products, brands, categories RESTART IDENTITY CASCADE",
	)
	require.NoError(t, err)

	return adapter
}

func openMigrated(t testing.TB, dialect sink.Dialect, dsn string) *sink.SQL {
	t.Helper()

	ctx := context.Background()

	adapter, err := sink.OpenSQL(ctx, dialect, dsn, sink.ConnectOptions{Retries: 3, RetryDelay: time.Second}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = adapter.Close()
	})

	scripts, err := sqlmigration.Scripts(dialect.Kind)
	require.NoError(t, err)
	require.NoError(t, sqlmigration.Run(ctx, adapter.DB(), dialect, scripts))

	return adapter
}

// SeedCategory inserts a category and returns its id.
func SeedCategory(t testing.TB, a sink.Adapter, slug string) int64 {
	t.Helper()

	id, err := a.Insert(context.Background(), "categories", []string{"slug", "name"}, slug, slug)
	require.NoError(t, err)

	return id
}

// SeedBrand inserts a brand and returns its id.
func SeedBrand(t testing.TB, a sink.Adapter, slug string) int64 {
	t.Helper()

	id, err := a.Insert(context.Background(), "brands", []string{"slug", "name"}, slug, slug)
	require.NoError(t, err)

	return id
}

func Logger(t testing.TB) *zap.Logger {
	return zaptest.NewLogger(t)
}
