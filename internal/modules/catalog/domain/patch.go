package domain

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Patch is a field-presence update for one product. Fields that are not
// present are left untouched; Null clears nullable fields.
type Patch struct {
	Name             Optional[string]
	ShortDescription Optional[string]
	Description      Optional[string]
	Category         Optional[string]
	Brand            Optional[string]
	BasePrice        Optional[decimal.Decimal]
	StockQuantity    Optional[int]
	StockUnit        Optional[string]

	Cannabinoids   Optional[CannabinoidProfile]
	Terpenes       Optional[TerpeneProfile]
	Strain         Optional[StrainInfo]
	Therapeutic    Optional[TherapeuticInfo]
	Usage          Optional[UsageInfo]
	Safety         Optional[SafetyInfo]
	Specifications Optional[Document]
	Attributes     Optional[Document]

	Featured             Optional[bool]
	IsMedicinal          Optional[bool]
	RequiresPrescription Optional[bool]
	Status               Optional[Status]

	PriceVariants Optional[[]PriceVariant]
	Images        Optional[[]ProductImage]

	// Rejections holds fields that were present but could not be applied.
	Rejections []FieldRejection
}

type FieldRejection struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (r FieldRejection) String() string {
	return r.Field + ": " + r.Reason
}

func (p *Patch) Reject(field string, format string, args ...any) {
	p.Rejections = append(p.Rejections, FieldRejection{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// readOnlyFields are accepted in a patch body and ignored.
var readOnlyFields = map[string]struct{}{
	"id":          {},
	"category_id": {},
	"brand_id":    {},
	"created_at":  {},
	"updated_at":  {},
}

// DecodePatch reads a JSON object into a Patch. A value of the wrong type is
// recorded as a rejection for that field instead of failing the whole patch.
func DecodePatch(data []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Patch{}, fmt.Errorf("patch must be a JSON object: %s: %w", err.Error(), core.ErrValidation)
	}

	if raw == nil {
		return Patch{}, fmt.Errorf("patch must be a JSON object: %w", core.ErrValidation)
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var p Patch
	for _, key := range keys {
		value := raw[key]

		switch key {
		case "name":
			decodeField(&p, key, value, false, &p.Name)
		case "short_description":
			decodeField(&p, key, value, true, &p.ShortDescription)
		case "description":
			decodeField(&p, key, value, true, &p.Description)
		case "category":
			decodeField(&p, key, value, false, &p.Category)
		case "brand":
			decodeField(&p, key, value, true, &p.Brand)
		case "base_price":
			decodePrice(&p, key, value)
		case "stock_quantity":
			decodeQuantity(&p, key, value)
		case "stock_unit":
			decodeField(&p, key, value, true, &p.StockUnit)
		case "cannabinoids":
			decodeField(&p, key, value, true, &p.Cannabinoids)
		case "terpenes":
			decodeField(&p, key, value, true, &p.Terpenes)
		case "strain_info":
			decodeField(&p, key, value, true, &p.Strain)
		case "therapeutic_info":
			decodeField(&p, key, value, true, &p.Therapeutic)
		case "usage_info":
			decodeField(&p, key, value, true, &p.Usage)
		case "safety_info":
			decodeField(&p, key, value, true, &p.Safety)
		case "specifications":
			decodeField(&p, key, value, true, &p.Specifications)
		case "attributes":
			decodeField(&p, key, value, true, &p.Attributes)
		case "featured":
			decodeField(&p, key, value, false, &p.Featured)
		case "is_medicinal":
			decodeField(&p, key, value, false, &p.IsMedicinal)
		case "requires_prescription":
			decodeField(&p, key, value, false, &p.RequiresPrescription)
		case "status":
			decodeField(&p, key, value, false, &p.Status)
		case "priceVariants":
			decodeField(&p, key, value, true, &p.PriceVariants)
		case "images":
			decodeField(&p, key, value, true, &p.Images)
		case "slug":
			p.Reject(key, "slug is immutable")
		default:
			if _, ignored := readOnlyFields[key]; !ignored {
				p.Reject(key, "unknown field")
			}
		}
	}

	return p, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeField[T any](p *Patch, field string, raw json.RawMessage, nullable bool, target *Optional[T]) {
	if isNull(raw) {
		if !nullable {
			p.Reject(field, "must not be null")
			return
		}
		*target = Null[T]()
		return
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		p.Reject(field, "invalid value: %s", err.Error())
		return
	}

	*target = Some(value)
}

func decodePrice(p *Patch, field string, raw json.RawMessage) {
	if isNull(raw) {
		p.Reject(field, "must not be null")
		return
	}

	var value decimal.Decimal
	if err := value.UnmarshalJSON(raw); err != nil {
		p.Reject(field, "not a number: %s", strings.TrimSpace(string(raw)))
		return
	}

	p.BasePrice = Some(value)
}

func decodeQuantity(p *Patch, field string, raw json.RawMessage) {
	if isNull(raw) {
		p.Reject(field, "must not be null")
		return
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		p.Reject(field, "not a number: %s", strings.TrimSpace(string(raw)))
		return
	}

	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			p.Reject(field, "not a whole number: %v", v)
			return
		}
		if math.Abs(v) > math.MaxInt32 {
			p.Reject(field, "out of range: %v", v)
			return
		}
		p.StockQuantity = Some(int(v))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			p.Reject(field, "not a number: %q", v)
			return
		}
		p.StockQuantity = Some(i)
	default:
		p.Reject(field, "not a number: %s", strings.TrimSpace(string(raw)))
	}
}
