package domain

import "strings"

type UnitFamily struct {
	Unit string
	Kind string
}

var (
	WeightFamily = UnitFamily{Unit: "g", Kind: "weight"}
	VolumeFamily = UnitFamily{Unit: "ml", Kind: "volume"}
	CountFamily  = UnitFamily{Unit: "unit", Kind: "unit"}
)

// FamilyOf maps a stock unit onto the family its variants are priced in.
func FamilyOf(unit string) UnitFamily {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gr", "gram", "grams", "kg", "mg":
		return WeightFamily
	case "ml", "l", "cl", "liter", "litre":
		return VolumeFamily
	default:
		return CountFamily
	}
}
