package features

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plately/featurizer/internal/embeddings"
	"github.com/plately/featurizer/internal/encoding"
	"github.com/plately/featurizer/internal/geo"
	"github.com/plately/featurizer/internal/vocab"
)

const (
	// sliderMidpoint is the documented default for missing sliders (5 of 10).
	sliderMidpoint = 5

	// ageWindow is the symmetric matching-tolerance window around age.
	ageWindow = 5

	// ageFloor clamps the lower bound of the age window.
	ageFloor = 18

	// daysPerYear uses the Julian year so leap days don't skew ages.
	daysPerYear = 365.25
)

// ProfileSource reads a user's raw rows.
type ProfileSource interface {
	RawUser(ctx context.Context, userID uuid.UUID) (*RawUserRecord, error)
}

// GeoResolver maps a postal code to coordinates. Implementations are total:
// they always return some coordinate pair.
type GeoResolver interface {
	Resolve(ctx context.Context, postalCode string) geo.Coordinates
}

// Builder orchestrates the encoder, geo resolver, and embedding provider to
// produce one FeatureSet per user.
type Builder struct {
	profiles ProfileSource
	embedder embeddings.Provider
	geo      GeoResolver
	logger   *slog.Logger
}

// NewBuilder creates a Builder with its collaborators injected.
func NewBuilder(profiles ProfileSource, embedder embeddings.Provider, resolver GeoResolver, logger *slog.Logger) *Builder {
	return &Builder{
		profiles: profiles,
		embedder: embedder,
		geo:      resolver,
		logger:   logger,
	}
}

// Build produces the FeatureSet for a user. Missing optional fields produce
// omitted slots, never errors; only a user with no base rows at all fails,
// with ErrMissingRequiredRecord.
func (b *Builder) Build(ctx context.Context, userID uuid.UUID) (*FeatureSet, error) {
	rec, err := b.profiles.RawUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading user %s: %w", userID, err)
	}
	if rec.Empty() {
		return nil, fmt.Errorf("user %s: %w", userID, ErrMissingRequiredRecord)
	}

	fs := &FeatureSet{
		UserID:      userID,
		Version:     vocab.Version,
		LastUpdated: time.Now().UTC(),
	}

	if err := b.encodeAccount(ctx, rec.Account, fs); err != nil {
		return nil, err
	}
	if err := b.encodeProfile(ctx, rec.Profile, fs); err != nil {
		return nil, err
	}
	if err := b.encodePreferences(ctx, rec.Preferences, fs); err != nil {
		return nil, err
	}

	if fs.FeatureStats.UnmatchedValues > 0 {
		b.logger.Warn("values dropped during vocabulary encoding",
			"user_id", userID, "unmatched", fs.FeatureStats.UnmatchedValues)
	}

	return fs, nil
}

func (b *Builder) encodeAccount(ctx context.Context, acct *Account, fs *FeatureSet) error {
	if acct == nil || acct.DisplayName == nil || *acct.DisplayName == "" {
		return nil
	}
	vec, err := b.embedder.Embed(ctx, *acct.DisplayName)
	if err != nil {
		return fmt.Errorf("embedding display name: %w", err)
	}
	fs.NameEmbedding = vec
	fs.FeatureStats.Embeddings++
	return nil
}

func (b *Builder) encodeProfile(ctx context.Context, p *Profile, fs *FeatureSet) error {
	if p == nil {
		return nil
	}

	if p.Gender != nil && *p.Gender != "" {
		vec, matched := encoding.OneHot(*p.Gender, vocab.MustFor(vocab.DimGender))
		fs.GenderVector = vec
		fs.FeatureStats.OneHotVectors++
		if !matched {
			fs.FeatureStats.UnmatchedValues++
		}
	}

	if p.EducationLevel != nil && *p.EducationLevel != "" {
		vec, matched := encoding.OneHot(*p.EducationLevel, vocab.MustFor(vocab.DimEducation))
		fs.EducationVector = vec
		fs.FeatureStats.OneHotVectors++
		if !matched {
			fs.FeatureStats.UnmatchedValues++
		}
		norm := encoding.NormalizeOrdinal(*p.EducationLevel, vocab.EducationRank)
		fs.EducationNormalized = &norm
		fs.FeatureStats.Scalars++
	}

	if p.Occupation != nil && *p.Occupation != "" {
		vec, err := b.embedder.Embed(ctx, *p.Occupation)
		if err != nil {
			return fmt.Errorf("embedding occupation: %w", err)
		}
		fs.OccupationEmbedding = vec
		fs.FeatureStats.Embeddings++
	}

	if p.BirthDate != nil {
		age := ageAt(*p.BirthDate, time.Now())
		ageMin := age - ageWindow
		if ageMin < ageFloor {
			ageMin = ageFloor
		}
		ageMax := age + ageWindow
		fs.Age = &age
		fs.AgeMin = &ageMin
		fs.AgeMax = &ageMax
		fs.FeatureStats.Scalars += 3
	}

	return nil
}

func (b *Builder) encodePreferences(ctx context.Context, p *Preferences, fs *FeatureSet) error {
	// Sliders are emitted unconditionally, defaulting to the scale midpoint.
	var social *SocialPreferences
	if p != nil {
		social = p.Social
	}
	fs.SocialLevel = sliderValue(socialField(social, func(s *SocialPreferences) *float64 { return s.SocialLevel }))
	fs.AdventureLevel = sliderValue(socialField(social, func(s *SocialPreferences) *float64 { return s.AdventureLevel }))
	fs.FormalityLevel = sliderValue(socialField(social, func(s *SocialPreferences) *float64 { return s.FormalityLevel }))
	fs.FeatureStats.Scalars += 3

	if p == nil {
		return nil
	}

	if len(p.DietaryRestrictions) > 0 {
		vec, unmatched := encoding.MultiHot(p.DietaryRestrictions, vocab.MustFor(vocab.DimDietaryRestrictions))
		fs.DietaryRestrictionsVector = vec
		fs.FeatureStats.MultiHotVectors++
		fs.FeatureStats.UnmatchedValues += unmatched
	}

	if len(p.DiningAtmospheres) > 0 {
		vec, unmatched := encoding.MultiHot(p.DiningAtmospheres, vocab.MustFor(vocab.DimAtmospheres))
		fs.DiningAtmospheresVector = vec
		fs.FeatureStats.MultiHotVectors++
		fs.FeatureStats.UnmatchedValues += unmatched
	}

	if len(p.PreferredCuisines) > 0 {
		vec, unmatched := encoding.MultiHot(p.PreferredCuisines, vocab.MustFor(vocab.DimCuisines))
		fs.PreferredCuisinesVector = vec
		fs.FeatureStats.MultiHotVectors++
		fs.FeatureStats.UnmatchedValues += unmatched

		fs.CuisineEmbeddings = make(map[string][]float32, len(p.PreferredCuisines))
		for _, cuisine := range p.PreferredCuisines {
			vec, err := b.embedder.Embed(ctx, cuisine)
			if err != nil {
				return fmt.Errorf("embedding cuisine %q: %w", cuisine, err)
			}
			fs.CuisineEmbeddings[cuisine] = vec
			fs.FeatureStats.Embeddings++
		}
	}

	if social != nil && len(social.Interests) > 0 {
		fs.InterestEmbeddings = make(map[string][]float32, len(social.Interests))
		for _, interest := range social.Interests {
			vec, err := b.embedder.Embed(ctx, interest)
			if err != nil {
				return fmt.Errorf("embedding interest %q: %w", interest, err)
			}
			fs.InterestEmbeddings[interest] = vec
			fs.FeatureStats.Embeddings++
		}
	}

	if p.LocationZipCode != nil && *p.LocationZipCode != "" {
		coords := b.geo.Resolve(ctx, *p.LocationZipCode)
		fs.Latitude = &coords.Latitude
		fs.Longitude = &coords.Longitude
		fs.FeatureStats.Scalars += 2
	}

	return nil
}

func socialField(s *SocialPreferences, get func(*SocialPreferences) *float64) *float64 {
	if s == nil {
		return nil
	}
	return get(s)
}

func sliderValue(v *float64) float64 {
	if v == nil {
		return encoding.NormalizeScale(sliderMidpoint, encoding.DefaultScaleMax)
	}
	return encoding.NormalizeScale(*v, encoding.DefaultScaleMax)
}

// ageAt computes whole years between birth and now using a 365.25-day year.
func ageAt(birth, now time.Time) int {
	days := now.Sub(birth).Hours() / 24
	if days < 0 {
		return 0
	}
	return int(days / daysPerYear)
}
