package domain

import (
	"fmt"
	"math"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/shopspring/decimal"
)

// Column bounds of the relational sinks: prices are NUMERIC(14,2), variant
// quantities NUMERIC(12,3) and stock an INTEGER.
const (
	MaxStockQuantity = math.MaxInt32

	priceScale    = 2
	quantityScale = 3
)

var (
	priceLimit    = decimal.New(1, 12)
	quantityLimit = decimal.New(1, 9)
	minQuantity   = decimal.New(1, -quantityScale)
)

// CheckPrice accepts prices that are not negative and fit twelve integer
// digits once rounded to cents.
func CheckPrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%s must not be negative, got %s: %w", field, price, core.ErrValidation)
	}

	if price.Round(priceScale).GreaterThanOrEqual(priceLimit) {
		return fmt.Errorf("%s exceeds %s, got %s: %w", field, priceLimit, price, core.ErrValidation)
	}

	return nil
}

func CheckStockQuantity(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("stock_quantity must not be negative, got %d: %w", quantity, core.ErrValidation)
	}

	if quantity > MaxStockQuantity {
		return fmt.Errorf("stock_quantity exceeds %d, got %d: %w", MaxStockQuantity, quantity, core.ErrValidation)
	}

	return nil
}

// CheckVariantQuantity accepts quantities of at least 0.001 after rounding to
// three decimals.
func CheckVariantQuantity(quantity float64) error {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity <= 0 {
		return fmt.Errorf("quantity must be greater than zero, got %v: %w", quantity, core.ErrValidation)
	}

	rounded := decimal.NewFromFloat(quantity).Round(quantityScale)
	if rounded.LessThan(minQuantity) {
		return fmt.Errorf("quantity must be at least %s, got %v: %w", minQuantity, quantity, core.ErrValidation)
	}

	if rounded.GreaterThanOrEqual(quantityLimit) {
		return fmt.Errorf("quantity exceeds %s, got %v: %w", quantityLimit, quantity, core.ErrValidation)
	}

	return nil
}
