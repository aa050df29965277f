// SPDX-License-Identifier: Apache-2.0

// Package normalize handles value and unit normalization for extracted
// numeric data: German decimal commas, U-value unit spellings, and
// plausibility ranges for the physical quantities the engine works with.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var nonNumeric = regexp.MustCompile(`[^0-9.+-]`)

// Decimal rewrites a German decimal comma to a dot.
func Decimal(value string) string {
	return strings.ReplaceAll(value, ",", ".")
}

// ParseFloat parses a numeric value that may arrive as a float, an int, or
// a free-text string with comma decimals and stray unit characters. The
// second return is false when no number can be recovered.
func ParseFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		cleaned := nonNumeric.ReplaceAllString(Decimal(v), "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// CanonicalToken renders a parsed threshold value in its canonical textual
// form, the form evidence quotes are searched for ("0.2", not "0.20").
func CanonicalToken(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// CanonicalAny renders any value in comparison-stable form: numerics via
// CanonicalToken, everything else via its default formatting.
func CanonicalAny(value any) string {
	if f, ok := ParseFloat(value); ok {
		return CanonicalToken(f)
	}
	return fmt.Sprintf("%v", value)
}

// Unit folds the common spellings of the transmittance unit onto W/(m2K).
func Unit(unit string) string {
	if unit == "" {
		return ""
	}
	canonical := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(unit)), " ", "")
	switch canonical {
	case "w/m2k", "w/(m2k)", "w/(m2.k)", "w/(m2*k)", "w/(m2.kelvin)":
		return "W/(m2K)"
	}
	return unit
}

// Plausibility ranges for extracted quantities. Values outside these ranges
// are kept but flagged so reviewers see them.
var plausibilityRanges = map[string][2]float64{
	"thickness_cm": {2.0, 40.0},
	"u_value":      {0.10, 2.0},
}

// Plausible reports whether a value sits inside the known range for the
// metric. Metrics without a range are always plausible.
func Plausible(metric string, value float64) bool {
	r, ok := plausibilityRanges[metric]
	if !ok {
		return true
	}
	return value >= r[0] && value <= r[1]
}

// ValueUnit is a parsed value with its canonical unit.
type ValueUnit struct {
	Value     *float64 `yaml:"value" json:"value"`
	Unit      string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Plausible bool     `yaml:"plausible" json:"plausible"`
}

// ValueWithUnit parses a raw value/unit pair, canonicalizes the unit and
// checks plausibility under the given metric.
func ValueWithUnit(value any, unit string, metric string) ValueUnit {
	out := ValueUnit{Unit: Unit(unit)}
	if f, ok := ParseFloat(value); ok {
		out.Value = &f
		out.Plausible = Plausible(metric, f)
	}
	return out
}
