package sqlmigration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"github.com/eskrenkovic/tql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const (
	mainTableUpMigration = `
		CREATE TABLE main_table1 (
			id INTEGER PRIMARY KEY
		);`

	mainTableDownMigration = `
		DROP TABLE main_table1;`

	dependantTableUpMigration = `
		CREATE TABLE dependant_table (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			main_id INTEGER REFERENCES main_table1(id)
		);`

	dependantTableDownMigration = `
		DROP TABLE dependant_table;`

	brokenMigration = `
		CREATE TABLE broken (;`
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", sink.SQLiteDSN(filepath.Join(t.TempDir(), "migrations.db")))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	count, err := tql.QueryFirst[int](
		context.Background(),
		db,
		"SELECT count(name) FROM sqlite_master WHERE type = 'table' AND name = ?",
		name,
	)
	require.NoError(t, err)

	return count > 0
}

func Test_Run_Applies_Bundled_SQLite_Schema(t *testing.T) {
	// Arrange
	db := openDB(t)
	scripts, err := Scripts(sink.KindSQLite)
	require.NoError(t, err)

	// Act
	err = Run(context.Background(), db, sink.SQLiteDialect, scripts)

	// Assert
	require.NoError(t, err)
	for _, table := range []string{"categories", "brands", "products", "product_price_variants", "product_images"} {
		require.True(t, tableExists(t, db, table), table)
	}
}

func Test_Run_Is_Idempotent(t *testing.T) {
	// Arrange
	db := openDB(t)
	scripts, err := Scripts(sink.KindSQLite)
	require.NoError(t, err)
	require.NoError(t, Run(context.Background(), db, sink.SQLiteDialect, scripts))

	// Act
	err = Run(context.Background(), db, sink.SQLiteDialect, scripts)

	// Assert
	require.NoError(t, err)

	applied, err := tql.Query[Migration](context.Background(), db, "SELECT id, version, name FROM schema_migration")
	require.NoError(t, err)
	require.Len(t, applied, 1)
}

func Test_Run_Applies_Only_New_Migrations(t *testing.T) {
	// Arrange
	db := openDB(t)
	first := fstest.MapFS{
		"1.main.up.sql":   {Data: []byte(mainTableUpMigration)},
		"1.main.down.sql": {Data: []byte(mainTableDownMigration)},
	}
	require.NoError(t, Run(context.Background(), db, sink.SQLiteDialect, first))

	second := fstest.MapFS{
		"1.main.up.sql":        {Data: []byte(mainTableUpMigration)},
		"1.main.down.sql":      {Data: []byte(mainTableDownMigration)},
		"2.dependant.up.sql":   {Data: []byte(dependantTableUpMigration)},
		"2.dependant.down.sql": {Data: []byte(dependantTableDownMigration)},
	}

	// Act
	err := Run(context.Background(), db, sink.SQLiteDialect, second)

	// Assert
	require.NoError(t, err)
	require.True(t, tableExists(t, db, "dependant_table"))
}

func Test_Run_Reverts_Migrations_When_One_Fails(t *testing.T) {
	// Arrange
	db := openDB(t)
	migrations := fstest.MapFS{
		"1.main.up.sql":        {Data: []byte(mainTableUpMigration)},
		"1.main.down.sql":      {Data: []byte(mainTableDownMigration)},
		"2.dependant.up.sql":   {Data: []byte(dependantTableUpMigration)},
		"2.dependant.down.sql": {Data: []byte(dependantTableDownMigration)},
		"3.broken.up.sql":      {Data: []byte(brokenMigration)},
		"3.broken.down.sql":    {Data: []byte("SELECT 1;")},
	}

	// Act
	err := Run(context.Background(), db, sink.SQLiteDialect, migrations)

	// Assert
	require.Error(t, err)
	require.False(t, tableExists(t, db, "main_table1"))
	require.False(t, tableExists(t, db, "dependant_table"))
}

func Test_Run_Requires_Down_Script(t *testing.T) {
	// Arrange
	db := openDB(t)
	migrations := fstest.MapFS{
		"1.main.up.sql": {Data: []byte(mainTableUpMigration)},
	}

	// Act
	err := Run(context.Background(), db, sink.SQLiteDialect, migrations)

	// Assert
	require.ErrorContains(t, err, "failed to find 'down' script")
}

func Test_Scripts_Rejects_Static_Sink(t *testing.T) {
	// Act
	_, err := Scripts(sink.KindJSON)

	// Assert
	require.Error(t, err)
}
