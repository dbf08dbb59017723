package sqlmigration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/eskrenkovic/catalog-ingest/internal/sink"

	"github.com/eskrenkovic/tql"
)

//go:embed scripts
var scripts embed.FS

type Migration struct {
	ID         int    `db:"id"`
	Version    int    `db:"version"`
	Name       string `db:"name"`
	UpScript   string
	DownScript string
}

// Scripts returns the bundled migrations for a relational sink kind.
func Scripts(kind sink.Kind) (fs.FS, error) {
	switch kind {
	case sink.KindSQLite, sink.KindPostgres:
		return fs.Sub(scripts, path.Join("scripts", string(kind)))
	default:
		return nil, fmt.Errorf("no migrations for sink kind: %s", kind)
	}
}

// Run applies every migration in migrations newer than the last applied
// version. A failing migration reverts the ones applied during this run.
func Run(ctx context.Context, db *sql.DB, dialect sink.Dialect, migrations fs.FS) error {
	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	found := make(map[int]Migration, 0)

	for _, entry := range entries {
		// Name convention - migrationnumber.name.up.sql
		//                   migrationnumber.name.down.sql
		// Needs to have both up and down!
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		parts := strings.Split(entry.Name(), ".")
		if len(parts) != 4 {
			continue
		}

		migrationNumber, err := strconv.Atoi(parts[0])
		if err != nil {
			return err
		}

		m := found[migrationNumber]
		m.Version = migrationNumber
		m.Name = parts[1]

		migrationContent, err := fs.ReadFile(migrations, entry.Name())
		if err != nil {
			return err
		}

		switch parts[2] {
		case "up":
			m.UpScript = string(migrationContent)
		case "down":
			m.DownScript = string(migrationContent)
		default:
			return fmt.Errorf("unrecognized script type: %s", parts[2])
		}

		found[migrationNumber] = m
	}

	if err := validateFoundMigrationFiles(found); err != nil {
		return err
	}

	if err := ensureMigrationsSchema(ctx, db, dialect); err != nil {
		return err
	}

	const q = `
		SELECT id, version, name
		FROM schema_migration
		ORDER BY version DESC;`
	alreadyAppliedMigrations, err := tql.Query[Migration](ctx, db, q)
	if err != nil {
		return err
	}

	lastAppliedMigrationVersion := 0
	if len(alreadyAppliedMigrations) > 0 {
		lastAppliedMigrationVersion = alreadyAppliedMigrations[0].Version
	}

	var migrationsToApply []Migration
	for migrationVersion, migration := range found {
		if migrationVersion <= lastAppliedMigrationVersion {
			continue
		}

		migrationsToApply = append(migrationsToApply, migration)
	}

	if len(migrationsToApply) == 0 {
		return nil
	}

	sort.Slice(migrationsToApply, func(i, j int) bool {
		return migrationsToApply[i].Version < migrationsToApply[j].Version
	})

	var newlyAppliedMigrations []Migration

	var migrationErr error
	for _, migration := range migrationsToApply {
		if migrationErr = apply(ctx, db, dialect, migration); migrationErr != nil {
			migrationErr = fmt.Errorf("migration %d.%s: %w", migration.Version, migration.Name, migrationErr)
			break
		}

		newlyAppliedMigrations = append(newlyAppliedMigrations, migration)
	}

	if migrationErr != nil {
		if err := revertState(ctx, db, dialect, newlyAppliedMigrations); err != nil {
			return fmt.Errorf("%s: %w", err.Error(), migrationErr)
		}
		return migrationErr
	}

	return nil
}

func apply(ctx context.Context, db *sql.DB, dialect sink.Dialect, migration Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, migration.UpScript); err != nil {
		return rollback(tx, err)
	}

	stmt := dialect.Rebind(`
		INSERT INTO
			schema_migration (version, name)
		VALUES (?, ?);`)
	if _, err = tx.ExecContext(ctx, stmt, migration.Version, migration.Name); err != nil {
		return rollback(tx, err)
	}

	return tx.Commit()
}

func rollback(tx *sql.Tx, cause error) error {
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %s: %w", err.Error(), cause)
	}
	return cause
}

func validateFoundMigrationFiles(migrations map[int]Migration) error {
	for _, migration := range migrations {
		if migration.DownScript == "" {
			return fmt.Errorf("failed to find 'down' script for %s", migration.Name)
		}

		if migration.UpScript == "" {
			return fmt.Errorf("failed to find 'up' script for %s", migration.Name)
		}
	}
	return nil
}

func revertState(ctx context.Context, db *sql.DB, dialect sink.Dialect, appliedMigrations []Migration) error {
	for i := len(appliedMigrations) - 1; i >= 0; i-- {
		migration := appliedMigrations[i]

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, migration.DownScript); err != nil {
			return rollback(tx, err)
		}

		stmt := dialect.Rebind("DELETE FROM schema_migration WHERE version = ?")
		if _, err = tx.ExecContext(ctx, stmt, migration.Version); err != nil {
			return rollback(tx, err)
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

func ensureMigrationsSchema(ctx context.Context, db *sql.DB, dialect sink.Dialect) error {
	checkIfSchemaExistsQuery := `
		SELECT count(table_name)
		FROM information_schema.tables
		WHERE table_name = ?;`
	createStmt := `
		CREATE TABLE schema_migration (
			id serial PRIMARY KEY,
			name text NOT NULL,
			version integer NOT NULL
		)`

	if dialect.Kind == sink.KindSQLite {
		checkIfSchemaExistsQuery = `
			SELECT count(name)
			FROM sqlite_master
			WHERE type = 'table' AND name = ?;`
		createStmt = `
			CREATE TABLE schema_migration (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				version INTEGER NOT NULL
			)`
	}

	schemas, err := tql.QueryFirst[int](ctx, db, dialect.Rebind(checkIfSchemaExistsQuery), "schema_migration")
	if err != nil {
		return err
	}

	if schemas > 0 {
		return nil
	}

	_, err = db.ExecContext(ctx, createStmt)
	return err
}
