package domain

import (
	"fmt"
	"strconv"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/shopspring/decimal"
)

type PriceVariant struct {
	ID             int64               `json:"id,omitempty"`
	ProductID      int64               `json:"product_id,omitempty"`
	Name           string              `json:"name"`
	Type           string              `json:"type"`
	Quantity       float64             `json:"quantity"`
	Unit           string              `json:"unit"`
	Price          decimal.Decimal     `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	IsDefault      bool                `json:"is_default"`
	Status         Status              `json:"status"`
}

func (v PriceVariant) Validate() error {
	if err := CheckVariantQuantity(v.Quantity); err != nil {
		return fmt.Errorf("variant '%s': %w", v.Name, err)
	}

	if err := CheckPrice("price", v.Price); err != nil {
		return fmt.Errorf("variant '%s': %w", v.Name, err)
	}

	if v.CompareAtPrice.Valid {
		if err := CheckPrice("compare_at_price", v.CompareAtPrice.Decimal); err != nil {
			return fmt.Errorf("variant '%s': %w", v.Name, err)
		}
	}

	if v.Status != "" && !v.Status.Valid() {
		return fmt.Errorf("variant '%s': unknown status '%s': %w", v.Name, v.Status, core.ErrValidation)
	}

	return nil
}

// WithDefaults fills unit, type, status and name from the product's stock unit.
func (v PriceVariant) WithDefaults(stockUnit string) PriceVariant {
	family := FamilyOf(stockUnit)

	if v.Unit == "" {
		v.Unit = family.Unit
	}

	if v.Type == "" {
		v.Type = FamilyOf(v.Unit).Kind
	}

	if v.Status == "" {
		v.Status = StatusActive
	}

	if v.Name == "" {
		v.Name = strconv.FormatFloat(v.Quantity, 'f', -1, 64) + v.Unit
	}

	return v
}
