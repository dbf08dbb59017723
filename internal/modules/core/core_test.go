package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func Test_CommandErrorFrom_Maps_Sentinels_To_Codes(t *testing.T) {
	cases := map[string]struct {
		err  error
		code ErrorCode
	}{
		"validation":   {err: fmt.Errorf("name is empty: %w", ErrValidation), code: CodeInvalidRequest},
		"reference":    {err: ReferenceNotFound("category", "flores"), code: CodeInvalidRequest},
		"config":       {err: InvalidConfig("no sink"), code: CodeInvalidRequest},
		"not found":    {err: ProductNotFound(3), code: CodeNotFound},
		"connectivity": {err: Connectivity("postgres", errors.New("refused")), code: CodeUnavailable},
		"other":        {err: errors.New("boom"), code: CodeInternal},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			// Act
			commandErr := CommandErrorFrom(fmt.Errorf("wrapped: %w", c.err))

			// Assert
			require.Equal(t, c.code, commandErr.Code)
			require.ErrorIs(t, commandErr, c.err)
		})
	}
}

func Test_CommandErrorFrom_Keeps_Existing_Command_Error(t *testing.T) {
	// Arrange
	original := NewCommandError(CodeNotFound, ProductNotFound(1), WithReason("missing"))

	// Act
	commandErr := CommandErrorFrom(original)

	// Assert
	require.Equal(t, CodeNotFound, commandErr.Code)
	require.NotNil(t, commandErr.Reason)
	require.Equal(t, "missing", *commandErr.Reason)
}

func Test_ValidationError_OrNil(t *testing.T) {
	// Arrange
	var empty ValidationError
	var collected ValidationError

	// Act
	empty.Append(nil)
	collected.Append(errors.New("name is required"))

	// Assert
	require.NoError(t, empty.OrNil())
	require.ErrorIs(t, collected.OrNil(), ErrValidation)
	require.Contains(t, collected.Error(), "name is required")
}

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.Exec("CREATE TABLE IF NOT EXISTS items (name TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM items")
	require.NoError(t, err)

	return db
}

func countItems(t *testing.T, db *sql.DB) int {
	t.Helper()

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM items").Scan(&count))

	return count
}

func Test_Tx_Commits_On_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	db := openMemoryDB(t)

	// Act
	err := Tx(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')")
		return err
	})

	// Assert
	require.NoError(t, err)
	require.Equal(t, 1, countItems(t, db))
}

func Test_Tx_Rolls_Back_On_Error(t *testing.T) {
	// Arrange
	ctx := context.Background()
	db := openMemoryDB(t)
	failure := errors.New("second insert failed")

	// Act
	err := Tx(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')"); err != nil {
			return err
		}
		return failure
	})

	// Assert
	require.ErrorIs(t, err, failure)
	require.Equal(t, 0, countItems(t, db))
}

func Test_Tx_Rolls_Back_On_Panic(t *testing.T) {
	// Arrange
	ctx := context.Background()
	db := openMemoryDB(t)

	// Act
	err := Tx(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')"); err != nil {
			return err
		}
		panic("unexpected")
	})

	// Assert
	require.ErrorContains(t, err, "unexpected")
	require.Equal(t, 0, countItems(t, db))
}

type namedRequest struct{}

func (namedRequest) Name() string {
	return "named_request"
}

func Test_Logging_Behaviors_Log_Request_Type_And_Errors(t *testing.T) {
	// Arrange
	observed, logs := observer.New(zap.InfoLevel)
	logger := zap.New(observed)

	requestLogging := RequestLoggingBehavior{Logger: logger}
	errorLogging := HandlerErrorLoggingBehavior{Logger: logger}
	failure := errors.New("handler failed")

	ctx := WithRunID(context.Background(), "run-1")
	next := func(ctx context.Context, request interface{}) (interface{}, error) {
		return errorLogging.Handle(ctx, request, func(context.Context, interface{}) (interface{}, error) {
			return nil, failure
		})
	}

	// Act
	_, err := requestLogging.Handle(ctx, namedRequest{}, next)

	// Assert
	require.ErrorIs(t, err, failure)
	require.Equal(t, 2, logs.Len())

	entries := logs.All()
	assert.Equal(t, "processing request", entries[0].Message)
	assert.Equal(t, "named_request", entries[0].ContextMap()["request_type"])
	assert.Equal(t, "run-1", entries[0].ContextMap()["run_id"])
	assert.Equal(t, "handler returned error", entries[1].Message)
}

func Test_NewLogger_Falls_Back_To_Info(t *testing.T) {
	// Act
	logger, err := NewLogger("not-a-level", "production")

	// Assert
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.InfoLevel))
	require.False(t, logger.Core().Enabled(zap.DebugLevel))
}
