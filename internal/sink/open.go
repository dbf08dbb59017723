package sink

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const postgresMaxOpenConns = 20

type ConnectOptions struct {
	Retries    int
	RetryDelay time.Duration
}

// SQLiteDSN enables foreign keys and a busy timeout on every connection.
func SQLiteDSN(path string) string {
	query := url.Values{}
	query.Set("_foreign_keys", "1")
	query.Set("_busy_timeout", "5000")

	return fmt.Sprintf("file:%s?%s", path, query.Encode())
}

// OpenSQL connects to a relational sink, retrying until the database answers
// a ping. Exhausting the retries is a connectivity error.
func OpenSQL(
	ctx context.Context,
	dialect Dialect,
	dsn string,
	opts ConnectOptions,
	logger *zap.Logger,
) (*SQL, error) {
	if !dialect.Relational() {
		return nil, core.InvalidConfig("sink kind '%s' is not relational", dialect.Kind)
	}

	retries := opts.Retries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		db, err := connect(ctx, dialect, dsn)
		if err == nil {
			logger.Info("connected to sink", zap.String("sink", string(dialect.Kind)), zap.Int("attempt", attempt))
			return NewSQL(db, dialect, logger), nil
		}

		lastErr = err
		logger.Warn(
			"failed to connect to sink",
			zap.String("sink", string(dialect.Kind)),
			zap.Int("attempt", attempt),
			zap.Int("retries", retries),
			zap.Error(err),
		)

		if attempt == retries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, core.Connectivity(string(dialect.Kind), ctx.Err())
		case <-time.After(opts.RetryDelay):
		}
	}

	return nil, core.Connectivity(string(dialect.Kind), lastErr)
}

func connect(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, err
	}

	switch dialect.Kind {
	case KindSQLite:
		// One writer; every statement including those inside a transaction
		// must go through the same connection.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(postgresMaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
