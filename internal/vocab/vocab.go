// Package vocab holds the versioned categorical vocabularies used by the
// feature encoder. A token's index position IS its encoding position, so a
// published list must never be reordered — new tokens are appended only.
package vocab

import (
	"errors"
	"fmt"
)

// Version tags the encoding scheme. Bump it whenever a vocabulary gains
// tokens, so stored feature vectors can be told apart from freshly encoded
// ones.
const Version = "1.0.0"

// ErrUnknownDimension is returned when a dimension name is not registered.
var ErrUnknownDimension = errors.New("unknown vocabulary dimension")

// List is an ordered, immutable sequence of canonical tokens for one
// categorical dimension.
type List []string

// Registered dimension names.
const (
	DimDietaryRestrictions = "dietary_restrictions"
	DimCuisines            = "cuisines"
	DimAtmospheres         = "atmospheres"
	DimGender              = "gender"
	DimEducation           = "education"
)

var dimensions = map[string]List{
	DimDietaryRestrictions: {
		"vegetarian", "vegan", "pescatarian", "halal", "kosher",
		"gluten_free", "dairy_free", "nut_free", "shellfish_free", "none",
	},
	DimCuisines: {
		"italian", "japanese", "mexican", "chinese", "indian", "thai",
		"french", "korean", "vietnamese", "mediterranean", "american",
		"spanish", "middle_eastern", "ethiopian", "greek", "caribbean",
	},
	DimAtmospheres: {
		"casual", "fine_dining", "trendy", "cozy", "lively", "quiet",
		"romantic", "family_friendly", "outdoor",
	},
	DimGender: {
		"male", "female", "non_binary", "prefer_not_to_say",
	},
	DimEducation: {
		"high_school", "some_college", "bachelors", "masters", "phd",
		"mba", "jd", "md", "other",
	},
}

// EducationRank maps education tokens to an ordinal rank. Professional
// degrees are aliased to the academic level of comparable rigor.
var EducationRank = map[string]int{
	"high_school":  1,
	"some_college": 2,
	"bachelors":    3,
	"masters":      4,
	"phd":          5,
	"mba":          4,
	"jd":           5,
	"md":           5,
	"other":        1,
}

// For returns the vocabulary list for a dimension.
func For(dimension string) (List, error) {
	list, ok := dimensions[dimension]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dimension)
	}
	return list, nil
}

// MustFor returns the list for a dimension known at compile time; it panics
// on an unregistered name, which is a programming error.
func MustFor(dimension string) List {
	list, err := For(dimension)
	if err != nil {
		panic(err)
	}
	return list
}

// Index returns the encoding position of token, or -1 if absent.
func (l List) Index(token string) int {
	for i, t := range l {
		if t == token {
			return i
		}
	}
	return -1
}
