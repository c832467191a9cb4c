package encoding

import (
	"testing"

	"github.com/plately/featurizer/internal/vocab"
)

func TestMultiHot_CaseInsensitiveMatch(t *testing.T) {
	list := vocab.List{"vegetarian", "vegan", "halal"}
	vec, unmatched := MultiHot([]string{"Vegetarian", "vegan"}, list)

	want := []float32{1, 1, 0}
	for i := range want {
		if vec[i] != want[i] {
			t.Fatalf("vec = %v, want %v", vec, want)
		}
	}
	if unmatched != 0 {
		t.Errorf("unmatched = %d, want 0", unmatched)
	}
}

func TestMultiHot_UnknownValuesDropped(t *testing.T) {
	list := vocab.List{"vegetarian", "vegan", "halal"}
	vec, unmatched := MultiHot([]string{"vegan", "keto", "paleo"}, list)

	if len(vec) != len(list) {
		t.Fatalf("len(vec) = %d, want %d", len(vec), len(list))
	}
	if vec[1] != 1 {
		t.Errorf("expected vegan position set, got %v", vec)
	}
	if unmatched != 2 {
		t.Errorf("unmatched = %d, want 2", unmatched)
	}
}

func TestMultiHot_EmptyInput(t *testing.T) {
	list := vocab.MustFor(vocab.DimCuisines)
	vec, unmatched := MultiHot(nil, list)
	if len(vec) != len(list) {
		t.Fatalf("len(vec) = %d, want %d", len(vec), len(list))
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("position %d set on empty input", i)
		}
	}
	if unmatched != 0 {
		t.Errorf("unmatched = %d, want 0", unmatched)
	}
}

func TestOneHot_Match(t *testing.T) {
	list := vocab.List{"male", "female", "non_binary", "prefer_not_to_say"}
	vec, matched := OneHot("Non Binary", list)
	if !matched {
		t.Fatal("expected match")
	}
	if vec[2] != 1 {
		t.Errorf("vec = %v, want position 2 set", vec)
	}
}

func TestOneHot_NoMatchReturnsZeroVector(t *testing.T) {
	list := vocab.List{"male", "female", "agender", "prefer_not_to_say"}
	vec, matched := OneHot("non_binary", list)
	if matched {
		t.Fatal("expected no match")
	}
	if len(vec) != 4 {
		t.Fatalf("len(vec) = %d, want 4", len(vec))
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected all-zero vector, got %v", vec)
		}
	}
}

func TestNormalizeScale(t *testing.T) {
	tests := []struct {
		value, max, want float64
	}{
		{5, 10, 0.5},
		{10, 10, 1},
		{0, 10, 0},
		{12, 10, 1},  // clamped high
		{-3, 10, 0},  // clamped low
		{5, 0, 0.5},  // default max
		{7, -1, 0.7}, // default max
	}
	for _, tt := range tests {
		if got := NormalizeScale(tt.value, tt.max); got != tt.want {
			t.Errorf("NormalizeScale(%v, %v) = %v, want %v", tt.value, tt.max, got, tt.want)
		}
	}
}

func TestNormalizeOrdinal_Total(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		mapping map[string]int
		want    float64
	}{
		{"mapped", "masters", vocab.EducationRank, 0.8},
		{"aliased professional degree", "md", vocab.EducationRank, 1},
		{"case insensitive", "PhD", vocab.EducationRank, 1},
		{"unmapped", "bootcamp", vocab.EducationRank, 0},
		{"nil mapping", "masters", nil, 0},
		{"empty mapping", "masters", map[string]int{}, 0},
		{"zero max", "a", map[string]int{"a": 0}, 0},
	}
	for _, tt := range tests {
		got := NormalizeOrdinal(tt.value, tt.mapping)
		if got != tt.want {
			t.Errorf("%s: NormalizeOrdinal(%q) = %v, want %v", tt.name, tt.value, got, tt.want)
		}
		if got < 0 || got > 1 {
			t.Errorf("%s: result %v outside [0,1]", tt.name, got)
		}
	}
}
