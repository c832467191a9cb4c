package vocab

import (
	"errors"
	"testing"
)

func TestFor_KnownDimensions(t *testing.T) {
	for _, dim := range []string{
		DimDietaryRestrictions, DimCuisines, DimAtmospheres, DimGender, DimEducation,
	} {
		list, err := For(dim)
		if err != nil {
			t.Errorf("For(%q): unexpected error: %v", dim, err)
		}
		if len(list) == 0 {
			t.Errorf("For(%q): empty vocabulary", dim)
		}
	}
}

func TestFor_UnknownDimension(t *testing.T) {
	_, err := For("favorite_colors")
	if !errors.Is(err, ErrUnknownDimension) {
		t.Errorf("expected ErrUnknownDimension, got %v", err)
	}
}

func TestLists_NoDuplicates(t *testing.T) {
	for dim, list := range dimensions {
		seen := make(map[string]bool, len(list))
		for _, token := range list {
			if seen[token] {
				t.Errorf("%s: duplicate token %q", dim, token)
			}
			seen[token] = true
		}
	}
}

func TestIndex(t *testing.T) {
	list := MustFor(DimGender)
	if got := list.Index("non_binary"); got != 2 {
		t.Errorf("Index(non_binary) = %d, want 2", got)
	}
	if got := list.Index("unknown"); got != -1 {
		t.Errorf("Index(unknown) = %d, want -1", got)
	}
}

func TestEducationRank_CoversVocabulary(t *testing.T) {
	for _, token := range MustFor(DimEducation) {
		if _, ok := EducationRank[token]; !ok {
			t.Errorf("education token %q has no ordinal rank", token)
		}
	}
}
