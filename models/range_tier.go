// Package models contains domain entities and business models for the charge console
package models

import (
	"strconv"
	"strings"
)

// RangeTier is one pricing bracket of a tiered strategy (weight, distance, or cube).
// Bounds are inclusive lower / exclusive upper except the final tier; the backend
// owns that policy, the console only carries the values.
type RangeTier struct {
	MinBound      float64  `json:"min_bound"`
	MaxBound      float64  `json:"max_bound"`
	PerUnitCharge float64  `json:"per_unit_charge"`
	MinCharge     *float64 `json:"min_charge"`
	MaxCharge     *float64 `json:"max_charge"`
	Enabled       bool     `json:"enabled"`
}

// RawTier holds the unparsed form values of a tier as the operator typed them.
// Values stay strings until payload build so edits survive round-trips untouched.
type RawTier struct {
	MinBound      string
	MaxBound      string
	PerUnitCharge string
	MinCharge     string
	MaxCharge     string
	Enabled       bool
}

// NewRawTier returns a tier with the editor defaults (0, 0, 0, no clamps, enabled).
func NewRawTier() RawTier {
	return RawTier{
		MinBound:      "0",
		MaxBound:      "0",
		PerUnitCharge: "0",
		Enabled:       true,
	}
}

// Normalize converts the raw form values into the wire shape. Empty or
// unparsable numeric input coerces to 0 rather than failing; validation of the
// aggregate happens in the flow layer, never per field. Empty clamp fields map
// to null so the backend skips the clamp entirely.
func (t RawTier) Normalize() RangeTier {
	return RangeTier{
		MinBound:      parseAmount(t.MinBound),
		MaxBound:      parseAmount(t.MaxBound),
		PerUnitCharge: parseAmount(t.PerUnitCharge),
		MinCharge:     parseClamp(t.MinCharge),
		MaxCharge:     parseClamp(t.MaxCharge),
		Enabled:       t.Enabled,
	}
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseClamp(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v := parseAmount(s)
	return &v
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatClamp(v *float64) string {
	if v == nil {
		return ""
	}
	return formatAmount(*v)
}
