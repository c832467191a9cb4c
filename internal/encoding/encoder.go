// Package encoding provides the pure functions that turn raw profile
// attributes into fixed-shape numeric vectors and scalars.
package encoding

import (
	"strings"

	"github.com/plately/featurizer/internal/vocab"
)

// DefaultScaleMax is the divisor applied when normalizing numeric slider
// values without an explicit maximum.
const DefaultScaleMax = 10

// Normalize canonicalizes a raw value before vocabulary lookup: lowercase,
// spaces replaced with underscores.
func Normalize(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), " ", "_")
}

// MultiHot encodes values against a vocabulary. The returned vector always
// has length len(list); values not found in the vocabulary are dropped, and
// the count of dropped values is returned so callers can surface the loss.
func MultiHot(values []string, list vocab.List) ([]float32, int) {
	vec := make([]float32, len(list))
	unmatched := 0
	for _, v := range values {
		idx := list.Index(Normalize(v))
		if idx < 0 {
			unmatched++
			continue
		}
		vec[idx] = 1
	}
	return vec, unmatched
}

// OneHot encodes a single value against a vocabulary. If the value is not in
// the vocabulary the all-zero vector is returned and matched is false.
func OneHot(value string, list vocab.List) (vec []float32, matched bool) {
	vec = make([]float32, len(list))
	idx := list.Index(Normalize(value))
	if idx < 0 {
		return vec, false
	}
	vec[idx] = 1
	return vec, true
}

// NormalizeScale maps a numeric value onto [0,1] by dividing by max
// (DefaultScaleMax when max <= 0), clamping the result. Total: any input
// produces a value in [0,1].
func NormalizeScale(value, max float64) float64 {
	if max <= 0 {
		max = DefaultScaleMax
	}
	v := value / max
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeOrdinal maps a categorical value onto [0,1] using its rank in
// mapping, divided by the mapping's maximum rank. Unmapped values and empty
// mappings normalize to 0. Total: never fails.
func NormalizeOrdinal(value string, mapping map[string]int) float64 {
	rank, ok := mapping[Normalize(value)]
	if !ok || rank < 0 {
		return 0
	}
	max := 0
	for _, r := range mapping {
		if r > max {
			max = r
		}
	}
	if max == 0 {
		return 0
	}
	return float64(rank) / float64(max)
}
