package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// Blob is a structured column serialized as JSON at the sink boundary.
type Blob interface {
	Validate() error
}

type Document map[string]any

// Validate reports values JSON cannot represent, such as NaN or channels.
func (d Document) Validate() error {
	_, err := json.Marshal(d)
	return err
}

type CannabinoidProfile struct {
	THC   *float64           `json:"thc,omitempty"`
	CBD   *float64           `json:"cbd,omitempty"`
	CBN   *float64           `json:"cbn,omitempty"`
	CBG   *float64           `json:"cbg,omitempty"`
	THCV  *float64           `json:"thcv,omitempty"`
	Other map[string]float64 `json:"other,omitempty"`
}

func (c CannabinoidProfile) Validate() error {
	named := map[string]*float64{
		"thc":  c.THC,
		"cbd":  c.CBD,
		"cbn":  c.CBN,
		"cbg":  c.CBG,
		"thcv": c.THCV,
	}

	for name, value := range named {
		if value == nil {
			continue
		}
		if err := percentage(name, *value); err != nil {
			return err
		}
	}

	for name, value := range c.Other {
		if err := percentage(name, value); err != nil {
			return err
		}
	}

	return nil
}

type TerpeneProfile struct {
	Dominant    []string           `json:"dominant,omitempty"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
	Aroma       []string           `json:"aroma,omitempty"`
}

func (t TerpeneProfile) Validate() error {
	for name, value := range t.Percentages {
		if err := percentage(name, value); err != nil {
			return err
		}
	}
	return nil
}

type StrainType string

const (
	StrainIndica StrainType = "indica"
	StrainSativa StrainType = "sativa"
	StrainHybrid StrainType = "hybrid"
)

type StrainInfo struct {
	Type     StrainType `json:"type,omitempty"`
	Genetics string     `json:"genetics,omitempty"`
	Origin   string     `json:"origin,omitempty"`
	Breeder  string     `json:"breeder,omitempty"`
}

func (s StrainInfo) Validate() error {
	switch StrainType(strings.ToLower(string(s.Type))) {
	case "", StrainIndica, StrainSativa, StrainHybrid:
		return nil
	default:
		return fmt.Errorf("unknown strain type '%s'", s.Type)
	}
}

type TherapeuticInfo struct {
	Conditions []string `json:"conditions,omitempty"`
	Benefits   []string `json:"benefits,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

func (TherapeuticInfo) Validate() error {
	return nil
}

type UsageInfo struct {
	Methods  []string `json:"methods,omitempty"`
	Dosage   string   `json:"dosage,omitempty"`
	Onset    string   `json:"onset,omitempty"`
	Duration string   `json:"duration,omitempty"`
}

func (UsageInfo) Validate() error {
	return nil
}

type SafetyInfo struct {
	Warnings          []string `json:"warnings,omitempty"`
	Contraindications []string `json:"contraindications,omitempty"`
	SideEffects       []string `json:"side_effects,omitempty"`
}

func (SafetyInfo) Validate() error {
	return nil
}

func percentage(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s is not a finite number", name)
	}
	if value < 0 || value > 100 {
		return fmt.Errorf("%s percentage %.2f is outside [0, 100]", name, value)
	}
	return nil
}
