package repository

import (
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/catalog/domain"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// EncodedProduct is a product ready to be written. Blob columns that failed
// to serialize hold nil and are stored as NULL.
type EncodedProduct struct {
	Product domain.Product
	Blobs   map[string]*string
}

// EncodeProduct serializes every blob column independently. The returned
// errors are scoped to single columns and never prevent the write.
func EncodeProduct(p domain.Product) (EncodedProduct, []error) {
	encoded := EncodedProduct{
		Product: p,
		Blobs:   make(map[string]*string, len(BlobColumns)),
	}

	var errs []error
	set := func(column string, value *string, err error) {
		if err != nil {
			errs = append(errs, err)
		}
		encoded.Blobs[column] = value
	}

	value, err := EncodeBlob(Cannabinoids, p.Cannabinoids)
	set(Cannabinoids, value, err)
	value, err = EncodeBlob(Terpenes, p.Terpenes)
	set(Terpenes, value, err)
	value, err = EncodeBlob(StrainInfo, p.Strain)
	set(StrainInfo, value, err)
	value, err = EncodeBlob(TherapeuticInfo, p.Therapeutic)
	set(TherapeuticInfo, value, err)
	value, err = EncodeBlob(UsageInfo, p.Usage)
	set(UsageInfo, value, err)
	value, err = EncodeBlob(SafetyInfo, p.Safety)
	set(SafetyInfo, value, err)
	value, err = EncodeDocument(Specifications, p.Specifications)
	set(Specifications, value, err)
	value, err = EncodeDocument(Attributes, p.Attributes)
	set(Attributes, value, err)

	return encoded, errs
}

// InsertArgs follows ProductInsertColumns.
func (e EncodedProduct) InsertArgs(now time.Time) []any {
	p := e.Product

	return []any{
		p.Slug,
		p.Name,
		nullString(p.ShortDescription),
		nullString(p.Description),
		p.CategoryID,
		p.BrandID,
		p.BasePrice,
		p.StockQuantity,
		nullString(p.StockUnit),
		e.Blobs[Cannabinoids],
		e.Blobs[Terpenes],
		e.Blobs[StrainInfo],
		e.Blobs[TherapeuticInfo],
		e.Blobs[UsageInfo],
		e.Blobs[SafetyInfo],
		e.Blobs[Specifications],
		e.Blobs[Attributes],
		p.Featured,
		p.IsMedicinal,
		p.RequiresPrescription,
		string(p.Status),
		now,
		now,
	}
}

func EncodeBlob[T domain.Blob](column string, blob *T) (*string, error) {
	if blob == nil {
		return nil, nil
	}

	if err := (*blob).Validate(); err != nil {
		return nil, core.SerializationFailure(column, err)
	}

	content, err := json.Marshal(blob)
	if err != nil {
		return nil, core.SerializationFailure(column, err)
	}

	s := string(content)
	return &s, nil
}

func EncodeDocument(column string, document domain.Document) (*string, error) {
	if document == nil {
		return nil, nil
	}

	content, err := json.Marshal(document)
	if err != nil {
		return nil, core.SerializationFailure(column, err)
	}

	s := string(content)
	return &s, nil
}

func decodeBlob[T any](column string, content *string) (*T, error) {
	if content == nil || *content == "" {
		return nil, nil
	}

	var value T
	if err := json.Unmarshal([]byte(*content), &value); err != nil {
		return nil, core.SerializationFailure(column, err)
	}

	return &value, nil
}

func decodeDocument(column string, content *string) (domain.Document, error) {
	document, err := decodeBlob[domain.Document](column, content)
	if err != nil || document == nil {
		return nil, err
	}
	return *document, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type productRow struct {
	ID                   int64           `db:"id"`
	Slug                 string          `db:"slug"`
	Name                 string          `db:"name"`
	ShortDescription     *string         `db:"short_description"`
	Description          *string         `db:"description"`
	CategoryID           int64           `db:"category_id"`
	CategorySlug         string          `db:"category_slug"`
	BrandID              *int64          `db:"brand_id"`
	BrandSlug            *string         `db:"brand_slug"`
	BasePrice            decimal.Decimal `db:"base_price"`
	StockQuantity        int             `db:"stock_quantity"`
	StockUnit            *string         `db:"stock_unit"`
	Cannabinoids         *string         `db:"cannabinoids"`
	Terpenes             *string         `db:"terpenes"`
	StrainInfo           *string         `db:"strain_info"`
	TherapeuticInfo      *string         `db:"therapeutic_info"`
	UsageInfo            *string         `db:"usage_info"`
	SafetyInfo           *string         `db:"safety_info"`
	Specifications       *string         `db:"specifications"`
	Attributes           *string         `db:"attributes"`
	Featured             bool            `db:"featured"`
	IsMedicinal          bool            `db:"is_medicinal"`
	RequiresPrescription bool            `db:"requires_prescription"`
	Status               string          `db:"status"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

// toDomain decodes the row. A stored blob that no longer decodes is dropped
// and reported, the rest of the product is still returned.
func (r productRow) toDomain() (domain.Product, []error) {
	p := domain.Product{
		ID:                   r.ID,
		Slug:                 r.Slug,
		Name:                 r.Name,
		ShortDescription:     stringOrEmpty(r.ShortDescription),
		Description:          stringOrEmpty(r.Description),
		Category:             r.CategorySlug,
		CategoryID:           r.CategoryID,
		Brand:                stringOrEmpty(r.BrandSlug),
		BrandID:              r.BrandID,
		BasePrice:            r.BasePrice,
		StockQuantity:        r.StockQuantity,
		StockUnit:            stringOrEmpty(r.StockUnit),
		Featured:             r.Featured,
		IsMedicinal:          r.IsMedicinal,
		RequiresPrescription: r.RequiresPrescription,
		Status:               domain.Status(r.Status),
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		PriceVariants:        []domain.PriceVariant{},
		Images:               []domain.ProductImage{},
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	p.Cannabinoids, err = decodeBlob[domain.CannabinoidProfile](Cannabinoids, r.Cannabinoids)
	collect(err)
	p.Terpenes, err = decodeBlob[domain.TerpeneProfile](Terpenes, r.Terpenes)
	collect(err)
	p.Strain, err = decodeBlob[domain.StrainInfo](StrainInfo, r.StrainInfo)
	collect(err)
	p.Therapeutic, err = decodeBlob[domain.TherapeuticInfo](TherapeuticInfo, r.TherapeuticInfo)
	collect(err)
	p.Usage, err = decodeBlob[domain.UsageInfo](UsageInfo, r.UsageInfo)
	collect(err)
	p.Safety, err = decodeBlob[domain.SafetyInfo](SafetyInfo, r.SafetyInfo)
	collect(err)
	p.Specifications, err = decodeDocument(Specifications, r.Specifications)
	collect(err)
	p.Attributes, err = decodeDocument(Attributes, r.Attributes)
	collect(err)

	return p, errs
}

type variantRow struct {
	ID             int64               `db:"id"`
	ProductID      int64               `db:"product_id"`
	Name           string              `db:"name"`
	VariantType    string              `db:"variant_type"`
	Quantity       float64             `db:"quantity"`
	Unit           string              `db:"unit"`
	Price          decimal.Decimal     `db:"price"`
	CompareAtPrice decimal.NullDecimal `db:"compare_at_price"`
	IsDefault      bool                `db:"is_default"`
	Status         string              `db:"status"`
}

func (r variantRow) toDomain() domain.PriceVariant {
	return domain.PriceVariant{
		ID:             r.ID,
		ProductID:      r.ProductID,
		Name:           r.Name,
		Type:           r.VariantType,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		Price:          r.Price,
		CompareAtPrice: r.CompareAtPrice,
		IsDefault:      r.IsDefault,
		Status:         domain.Status(r.Status),
	}
}

// VariantInsertArgs follows VariantInsertColumns.
func VariantInsertArgs(productID int64, v domain.PriceVariant) []any {
	return []any{
		productID,
		v.Name,
		v.Type,
		v.Quantity,
		v.Unit,
		v.Price,
		v.CompareAtPrice,
		v.IsDefault,
		string(v.Status),
	}
}

type imageRow struct {
	ID           int64   `db:"id"`
	ProductID    int64   `db:"product_id"`
	URL          string  `db:"url"`
	AltText      *string `db:"alt_text"`
	DisplayOrder int     `db:"display_order"`
	IsPrimary    bool    `db:"is_primary"`
}

func (r imageRow) toDomain() domain.ProductImage {
	return domain.ProductImage{
		ID:           r.ID,
		ProductID:    r.ProductID,
		URL:          r.URL,
		AltText:      stringOrEmpty(r.AltText),
		DisplayOrder: r.DisplayOrder,
		IsPrimary:    r.IsPrimary,
	}
}

// ImageInsertArgs follows ImageInsertColumns.
func ImageInsertArgs(productID int64, image domain.ProductImage) []any {
	return []any{
		productID,
		image.URL,
		nullString(image.AltText),
		image.DisplayOrder,
		image.IsPrimary,
	}
}

type referenceRow struct {
	ID   int64  `db:"id"`
	Slug string `db:"slug"`
}
