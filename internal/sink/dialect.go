package sink

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	KindJSON     Kind = "json"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

func ParseKind(mode string) (Kind, error) {
	switch Kind(strings.ToLower(mode)) {
	case KindJSON:
		return KindJSON, nil
	case KindSQLite:
		return KindSQLite, nil
	case KindPostgres:
		return KindPostgres, nil
	default:
		return "", fmt.Errorf("unknown sink kind: '%s'", mode)
	}
}

type PlaceholderStyle int

const (
	PlaceholderPositional PlaceholderStyle = iota // ?
	PlaceholderNumbered                           // $1, $2, ...
)

type ConflictStyle int

const (
	// ConflictIgnore silently drops the conflicting row and reports zero affected rows.
	ConflictIgnore ConflictStyle = iota
	// ConflictReturningNothing returns no id on conflict; the caller looks the row up.
	ConflictReturningNothing
)

// Dialect describes the SQL differences between relational sinks.
// Upstream statements are always written with '?' placeholders.
type Dialect struct {
	Kind            Kind
	DriverName      string
	Placeholder     PlaceholderStyle
	Conflict        ConflictStyle
	ReturnsInsertID bool
}

var (
	JSONDialect = Dialect{Kind: KindJSON}

	SQLiteDialect = Dialect{
		Kind:            KindSQLite,
		DriverName:      "sqlite3",
		Placeholder:     PlaceholderPositional,
		Conflict:        ConflictIgnore,
		ReturnsInsertID: true,
	}

	PostgresDialect = Dialect{
		Kind:            KindPostgres,
		DriverName:      "postgres",
		Placeholder:     PlaceholderNumbered,
		Conflict:        ConflictReturningNothing,
		ReturnsInsertID: false,
	}
)

func DialectFor(kind Kind) Dialect {
	switch kind {
	case KindSQLite:
		return SQLiteDialect
	case KindPostgres:
		return PostgresDialect
	default:
		return JSONDialect
	}
}

func (d Dialect) Relational() bool {
	return d.Kind == KindSQLite || d.Kind == KindPostgres
}

// Rebind rewrites '?' placeholders outside of quoted literals into the dialect's style.
func (d Dialect) Rebind(query string) string {
	if d.Placeholder == PlaceholderPositional {
		return query
	}

	var (
		b      strings.Builder
		n      int
		quoted bool
	)

	b.Grow(len(query) + 8)

	for _, c := range query {
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteRune(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(c)
		}
	}

	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// InsertStatement builds a plain insert. Dialects that cannot report the
// generated id through the driver get a RETURNING clause instead.
func (d Dialect) InsertStatement(table string, columns []string) string {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
	)

	if !d.ReturnsInsertID {
		stmt += " RETURNING id"
	}

	return stmt
}

// InsertUnlessConflictStatement builds an insert that leaves an existing row
// with the same conflictColumn value untouched.
func (d Dialect) InsertUnlessConflictStatement(table string, columns []string, conflictColumn string) string {
	values := placeholders(len(columns))
	cols := strings.Join(columns, ", ")

	switch d.Conflict {
	case ConflictReturningNothing:
		return fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING RETURNING id",
			table, cols, values, conflictColumn,
		)
	default:
		return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, cols, values)
	}
}
