package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/shopspring/decimal"
)

// Prices render as JSON numbers wherever a product is encoded.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Product is the canonical catalog record. Category and Brand carry slugs;
// CategoryID and BrandID are filled in by the sink that stores it.
type Product struct {
	ID               int64           `json:"id,omitempty"`
	Slug             string          `json:"slug"`
	Name             string          `json:"name"`
	ShortDescription string          `json:"short_description,omitempty"`
	Description      string          `json:"description,omitempty"`
	Category         string          `json:"category"`
	CategoryID       int64           `json:"category_id,omitempty"`
	Brand            string          `json:"brand,omitempty"`
	BrandID          *int64          `json:"brand_id,omitempty"`
	BasePrice        decimal.Decimal `json:"base_price"`
	StockQuantity    int             `json:"stock_quantity"`
	StockUnit        string          `json:"stock_unit,omitempty"`

	Cannabinoids   *CannabinoidProfile `json:"cannabinoids,omitempty"`
	Terpenes       *TerpeneProfile     `json:"terpenes,omitempty"`
	Strain         *StrainInfo         `json:"strain_info,omitempty"`
	Therapeutic    *TherapeuticInfo    `json:"therapeutic_info,omitempty"`
	Usage          *UsageInfo          `json:"usage_info,omitempty"`
	Safety         *SafetyInfo         `json:"safety_info,omitempty"`
	Specifications Document            `json:"specifications,omitempty"`
	Attributes     Document            `json:"attributes,omitempty"`

	Featured             bool   `json:"featured"`
	IsMedicinal          bool   `json:"is_medicinal"`
	RequiresPrescription bool   `json:"requires_prescription"`
	Status               Status `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PriceVariants []PriceVariant `json:"priceVariants"`
	Images        []ProductImage `json:"images"`
}

// Normalize fills in the values a canonical record may leave out.
func (p Product) Normalize() Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Slug = strings.TrimSpace(p.Slug)
	p.Category = Slugify(p.Category)
	p.Brand = Slugify(p.Brand)

	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}

	if p.Status == "" {
		p.Status = StatusActive
	}

	if p.PriceVariants == nil {
		p.PriceVariants = []PriceVariant{}
	}

	if p.Images == nil {
		p.Images = []ProductImage{}
	}

	return p
}

func (p Product) Validate() error {
	var validationErr core.ValidationError

	if p.Slug == "" {
		validationErr.Append(fmt.Errorf("product has neither slug nor name: %w", core.ErrValidation))
	}

	if p.Name == "" {
		validationErr.Append(fmt.Errorf("product '%s' has no name: %w", p.Slug, core.ErrValidation))
	}

	if err := CheckPrice("base_price", p.BasePrice); err != nil {
		validationErr.Append(fmt.Errorf("product '%s': %w", p.Slug, err))
	}

	if err := CheckStockQuantity(p.StockQuantity); err != nil {
		validationErr.Append(fmt.Errorf("product '%s': %w", p.Slug, err))
	}

	if !p.Status.Valid() {
		validationErr.Append(fmt.Errorf("product '%s' has unknown status '%s': %w", p.Slug, p.Status, core.ErrValidation))
	}

	return validationErr.OrNil()
}

type Category struct {
	ID          int64  `json:"id,omitempty"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Brand struct {
	ID   int64  `json:"id,omitempty"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}
