package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"go.uber.org/zap"
)

// Result is what a write reports back. InsertedID is only meaningful when
// HasInsertedID is set.
type Result struct {
	AffectedRows  int64
	InsertedID    int64
	HasInsertedID bool
}

type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type conn interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Adapter is the session handle relational components receive.
// Statements use '?' placeholders; the adapter rebinds them.
type Adapter interface {
	Dialect() Dialect
	Execute(ctx context.Context, stmt string, args ...any) (Result, error)
	Insert(ctx context.Context, table string, columns []string, args ...any) (int64, error)
	InsertUnlessConflict(ctx context.Context, table string, columns []string, conflictColumn string, args ...any) (Result, error)
	InTx(ctx context.Context, fn func(context.Context, Adapter) error) error
	Querier() Querier
}

var _ Adapter = (*SQL)(nil)

type SQL struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect Dialect
	logger  *zap.Logger
}

func NewSQL(db *sql.DB, dialect Dialect, logger *zap.Logger) *SQL {
	return &SQL{db: db, dialect: dialect, logger: logger}
}

func (s *SQL) Dialect() Dialect {
	return s.dialect
}

func (s *SQL) DB() *sql.DB {
	return s.db
}

func (s *SQL) conn() conn {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *SQL) Querier() Querier {
	return s.conn()
}

func (s *SQL) Execute(ctx context.Context, stmt string, args ...any) (Result, error) {
	res, err := s.conn().ExecContext(ctx, s.dialect.Rebind(stmt), args...)
	if err != nil {
		return Result{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, err
	}

	result := Result{AffectedRows: affected}

	if s.dialect.ReturnsInsertID && affected > 0 && isInsert(stmt) {
		id, err := res.LastInsertId()
		if err != nil {
			return Result{}, err
		}
		result.InsertedID = id
		result.HasInsertedID = true
	}

	return result, nil
}

func (s *SQL) Insert(ctx context.Context, table string, columns []string, args ...any) (int64, error) {
	stmt := s.dialect.InsertStatement(table, columns)

	if s.dialect.ReturnsInsertID {
		result, err := s.Execute(ctx, stmt, args...)
		if err != nil {
			return 0, err
		}
		if !result.HasInsertedID {
			return 0, fmt.Errorf("insert into %s reported no id", table)
		}
		return result.InsertedID, nil
	}

	var id int64
	if err := s.conn().QueryRowContext(ctx, s.dialect.Rebind(stmt), args...).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// InsertUnlessConflict reports zero affected rows when a row with the same
// conflictColumn value already exists.
func (s *SQL) InsertUnlessConflict(
	ctx context.Context,
	table string,
	columns []string,
	conflictColumn string,
	args ...any,
) (Result, error) {
	stmt := s.dialect.InsertUnlessConflictStatement(table, columns, conflictColumn)

	if s.dialect.Conflict == ConflictIgnore {
		return s.Execute(ctx, stmt, args...)
	}

	var id int64
	err := s.conn().QueryRowContext(ctx, s.dialect.Rebind(stmt), args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Result{}, nil
	case err != nil:
		return Result{}, err
	}

	return Result{AffectedRows: 1, InsertedID: id, HasInsertedID: true}, nil
}

// InTx runs fn against an adapter bound to a single transaction. An adapter
// that is already inside a transaction runs fn directly.
func (s *SQL) InTx(ctx context.Context, fn func(context.Context, Adapter) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	return core.Tx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &SQL{db: s.db, tx: tx, dialect: s.dialect, logger: s.logger})
	})
}

func (s *SQL) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

func isInsert(stmt string) bool {
	trimmed := strings.TrimSpace(stmt)
	return len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "insert")
}
