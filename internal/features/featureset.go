// Package features builds versioned feature sets from raw user records for
// the external matching engine.
package features

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMissingRequiredRecord is returned when none of a user's base account,
// profile, or preferences rows exist. Missing individual fields within
// existing rows are never an error.
var ErrMissingRequiredRecord = errors.New("missing required user record")

// Account mirrors the account row written by the signup flow.
type Account struct {
	ID          uuid.UUID
	DisplayName *string
}

// Profile mirrors the profile row written by onboarding.
type Profile struct {
	UserID         uuid.UUID
	Gender         *string
	EducationLevel *string
	Occupation     *string
	BirthDate      *time.Time
}

// SocialPreferences is the slider/interest sub-object of a preferences row.
// Sliders are on a 1-10 scale.
type SocialPreferences struct {
	Interests      []string `json:"interests,omitempty"`
	SocialLevel    *float64 `json:"social_level,omitempty"`
	AdventureLevel *float64 `json:"adventure_level,omitempty"`
	FormalityLevel *float64 `json:"formality_level,omitempty"`
}

// Preferences mirrors the dining preferences row written by onboarding.
type Preferences struct {
	UserID              uuid.UUID
	DietaryRestrictions []string
	PreferredCuisines   []string
	DiningAtmospheres   []string
	LocationZipCode     *string
	Social              *SocialPreferences
}

// RawUserRecord is the union of the rows the builder reads. Any section may
// be nil; a record with all three sections nil is treated as missing.
type RawUserRecord struct {
	Account     *Account
	Profile     *Profile
	Preferences *Preferences
}

// Empty reports whether no base rows exist at all for the user.
func (r *RawUserRecord) Empty() bool {
	return r == nil || (r.Account == nil && r.Profile == nil && r.Preferences == nil)
}

// Stats summarizes which feature slots a build actually populated, plus how
// many input values were silently dropped during vocabulary encoding.
type Stats struct {
	Embeddings      int `json:"embeddings"`
	MultiHotVectors int `json:"multi_hot_vectors"`
	OneHotVectors   int `json:"one_hot_vectors"`
	Scalars         int `json:"scalars"`
	UnmatchedValues int `json:"unmatched_values"`
}

// FeatureSet is the complete encoded output for one user. Vector slots are
// either fully populated at the exact length their vocabulary (or the
// embedding dimensionality) dictates, or omitted entirely. Slider scalars
// are always emitted.
type FeatureSet struct {
	UserID      uuid.UUID `json:"user_id"`
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`

	NameEmbedding       []float32            `json:"name_embedding,omitempty"`
	OccupationEmbedding []float32            `json:"occupation_embedding,omitempty"`
	InterestEmbeddings  map[string][]float32 `json:"interest_embeddings,omitempty"`
	CuisineEmbeddings   map[string][]float32 `json:"cuisine_embeddings,omitempty"`

	DietaryRestrictionsVector []float32 `json:"dietary_restrictions_vector,omitempty"`
	DiningAtmospheresVector   []float32 `json:"dining_atmospheres_vector,omitempty"`
	PreferredCuisinesVector   []float32 `json:"preferred_cuisines_vector,omitempty"`
	GenderVector              []float32 `json:"gender_vector,omitempty"`
	EducationVector           []float32 `json:"education_vector,omitempty"`

	EducationNormalized *float64 `json:"education_normalized,omitempty"`

	// Sliders are always present: downstream consumers expect a fixed-width
	// numeric block, so missing sliders default to the scale midpoint.
	SocialLevel    float64 `json:"social_level"`
	AdventureLevel float64 `json:"adventure_level"`
	FormalityLevel float64 `json:"formality_level"`

	Age    *int `json:"age,omitempty"`
	AgeMin *int `json:"age_min,omitempty"`
	AgeMax *int `json:"age_max,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	FeatureStats Stats `json:"feature_stats"`
}
