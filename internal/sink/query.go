package sink

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eskrenkovic/tql"
)

// QueryOne maps the first row into T. found is false when there are no rows.
func QueryOne[T any](ctx context.Context, a Adapter, stmt string, args ...any) (result T, found bool, err error) {
	result, err = tql.QueryFirst[T](ctx, a.Querier(), a.Dialect().Rebind(stmt), args...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return result, false, nil
	case err != nil:
		return result, false, err
	}

	return result, true, nil
}

func QueryMany[T any](ctx context.Context, a Adapter, stmt string, args ...any) ([]T, error) {
	return tql.Query[T](ctx, a.Querier(), a.Dialect().Rebind(stmt), args...)
}
