package repository

import (
	"context"
	"strings"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"
	"github.com/eskrenkovic/catalog-ingest/internal/sink"
)

// Changes collects column assignments for a partial product update.
type Changes struct {
	columns []string
	args    []any
}

func (c *Changes) Set(column string, value any) {
	c.columns = append(c.columns, column)
	c.args = append(c.args, value)
}

// SetText stores an empty string as NULL.
func (c *Changes) SetText(column string, value string) {
	c.Set(column, nullString(value))
}

func (c Changes) Columns() []string {
	return c.columns
}

func (c Changes) Empty() bool {
	return len(c.columns) == 0
}

// Update writes the changed columns and updated_at. Unchanged columns are not
// part of the statement.
func (r *ProductRepository) Update(ctx context.Context, a sink.Adapter, productID int64, changes Changes, now time.Time) error {
	assignments := make([]string, 0, len(changes.columns)+1)
	for _, column := range changes.columns {
		assignments = append(assignments, column+" = ?")
	}
	assignments = append(assignments, UpdatedAt+" = ?")

	args := append(append([]any{}, changes.args...), now, productID)

	result, err := a.Execute(
		ctx,
		"UPDATE "+ProductsTable+" SET "+strings.Join(assignments, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return err
	}

	if result.AffectedRows == 0 {
		return core.ProductNotFound(productID)
	}

	return nil
}
