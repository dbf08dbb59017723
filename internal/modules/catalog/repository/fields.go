package repository

// Table names.
const (
	CategoriesTable = "categories"
	BrandsTable     = "brands"
	ProductsTable   = "products"
	VariantsTable   = "product_price_variants"
	ImagesTable     = "product_images"
)

// Product columns.
const (
	ID                   = "id"
	Slug                 = "slug"
	Name                 = "name"
	ShortDescription     = "short_description"
	Description          = "description"
	CategoryID           = "category_id"
	BrandID              = "brand_id"
	BasePrice            = "base_price"
	StockQuantity        = "stock_quantity"
	StockUnit            = "stock_unit"
	Cannabinoids         = "cannabinoids"
	Terpenes             = "terpenes"
	StrainInfo           = "strain_info"
	TherapeuticInfo      = "therapeutic_info"
	UsageInfo            = "usage_info"
	SafetyInfo           = "safety_info"
	Specifications       = "specifications"
	Attributes           = "attributes"
	Featured             = "featured"
	IsMedicinal          = "is_medicinal"
	RequiresPrescription = "requires_prescription"
	Status               = "status"
	CreatedAt            = "created_at"
	UpdatedAt            = "updated_at"
)

// Child columns.
const (
	ProductID      = "product_id"
	VariantType    = "variant_type"
	Quantity       = "quantity"
	Unit           = "unit"
	Price          = "price"
	CompareAtPrice = "compare_at_price"
	IsDefault      = "is_default"
	URL            = "url"
	AltText        = "alt_text"
	DisplayOrder   = "display_order"
	IsPrimary      = "is_primary"
)

// ProductInsertColumns is the column order of EncodedProduct.InsertArgs.
var ProductInsertColumns = []string{
	Slug, Name, ShortDescription, Description, CategoryID, BrandID,
	BasePrice, StockQuantity, StockUnit,
	Cannabinoids, Terpenes, StrainInfo, TherapeuticInfo, UsageInfo, SafetyInfo, Specifications, Attributes,
	Featured, IsMedicinal, RequiresPrescription, Status, CreatedAt, UpdatedAt,
}

var VariantInsertColumns = []string{
	ProductID, Name, VariantType, Quantity, Unit, Price, CompareAtPrice, IsDefault, Status,
}

var ImageInsertColumns = []string{
	ProductID, URL, AltText, DisplayOrder, IsPrimary,
}

// BlobColumns lists the structured columns serialized as JSON.
var BlobColumns = []string{
	Cannabinoids, Terpenes, StrainInfo, TherapeuticInfo, UsageInfo, SafetyInfo, Specifications, Attributes,
}
