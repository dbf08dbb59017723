package sink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Rebind_Numbers_Placeholders_For_Postgres(t *testing.T) {
	// Act
	query := PostgresDialect.Rebind("SELECT id FROM products WHERE slug = ? AND status = ?")

	// Assert
	require.Equal(t, "SELECT id FROM products WHERE slug = $1 AND status = $2", query)
}

func Test_Rebind_Skips_Quoted_Question_Marks(t *testing.T) {
	// Act
	query := PostgresDialect.Rebind("SELECT '?' AS q, id FROM products WHERE slug = ?")

	// Assert
	require.Equal(t, "SELECT '?' AS q, id FROM products WHERE slug = $1", query)
}

func Test_Rebind_Leaves_SQLite_Untouched(t *testing.T) {
	// Arrange
	const query = "SELECT id FROM products WHERE slug = ?"

	// Act
	rebound := SQLiteDialect.Rebind(query)

	// Assert
	require.Equal(t, query, rebound)
}

func Test_InsertUnlessConflictStatement_Per_Dialect(t *testing.T) {
	// Arrange
	columns := []string{"slug", "name"}

	// Act
	sqlite := SQLiteDialect.InsertUnlessConflictStatement("brands", columns, "slug")
	postgres := PostgresDialect.Rebind(PostgresDialect.InsertUnlessConflictStatement("brands", columns, "slug"))

	// Assert
	require.Equal(t, "INSERT OR IGNORE INTO brands (slug, name) VALUES (?, ?)", sqlite)
	require.Equal(t, "INSERT INTO brands (slug, name) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING RETURNING id", postgres)
}

func Test_InsertStatement_Returns_Id_Only_When_Driver_Cannot(t *testing.T) {
	// Act
	sqlite := SQLiteDialect.InsertStatement("product_images", []string{"product_id", "url"})
	postgres := PostgresDialect.InsertStatement("product_images", []string{"product_id", "url"})

	// Assert
	require.Equal(t, "INSERT INTO product_images (product_id, url) VALUES (?, ?)", sqlite)
	require.Equal(t, "INSERT INTO product_images (product_id, url) VALUES (?, ?) RETURNING id", postgres)
}

func Test_ParseKind_Rejects_Unknown_Mode(t *testing.T) {
	// Act
	_, err := ParseKind("mongo")

	// Assert
	require.Error(t, err)
}

func Test_Relational_Excludes_Static_Sink(t *testing.T) {
	// Assert
	require.False(t, DialectFor(KindJSON).Relational())
	require.True(t, DialectFor(KindSQLite).Relational())
	require.True(t, DialectFor(KindPostgres).Relational())
}
