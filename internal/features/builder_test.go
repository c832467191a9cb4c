package features

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/plately/featurizer/internal/embeddings"
	"github.com/plately/featurizer/internal/geo"
	"github.com/plately/featurizer/internal/vocab"
)

type fakeProfiles struct {
	rec *RawUserRecord
	err error
}

func (f *fakeProfiles) RawUser(context.Context, uuid.UUID) (*RawUserRecord, error) {
	return f.rec, f.err
}

type fakeGeo struct {
	coords geo.Coordinates
}

func (f *fakeGeo) Resolve(context.Context, string) geo.Coordinates {
	return f.coords
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
func testLogger() *slog.Logger  { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestBuilder(rec *RawUserRecord) *Builder {
	return NewBuilder(
		&fakeProfiles{rec: rec},
		embeddings.NewFallbackProvider(),
		&fakeGeo{coords: geo.Coordinates{Latitude: 40.7, Longitude: -74.0}},
		testLogger(),
	)
}

func TestBuild_MissingRecord(t *testing.T) {
	for _, rec := range []*RawUserRecord{nil, {}} {
		b := newTestBuilder(rec)
		_, err := b.Build(context.Background(), uuid.New())
		if !errors.Is(err, ErrMissingRequiredRecord) {
			t.Errorf("expected ErrMissingRequiredRecord, got %v", err)
		}
	}
}

func TestBuild_ReadError(t *testing.T) {
	b := NewBuilder(
		&fakeProfiles{err: errors.New("connection reset")},
		embeddings.NewFallbackProvider(),
		&fakeGeo{},
		testLogger(),
	)
	if _, err := b.Build(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuild_FullRecord(t *testing.T) {
	birth := time.Now().AddDate(-30, 0, -1)
	rec := &RawUserRecord{
		Account: &Account{ID: uuid.New(), DisplayName: strPtr("Dana")},
		Profile: &Profile{
			Gender:         strPtr("non_binary"),
			EducationLevel: strPtr("masters"),
			Occupation:     strPtr("chef"),
			BirthDate:      &birth,
		},
		Preferences: &Preferences{
			DietaryRestrictions: []string{"Vegetarian", "vegan"},
			PreferredCuisines:   []string{"japanese", "thai"},
			DiningAtmospheres:   []string{"cozy"},
			LocationZipCode:     strPtr("10001"),
			Social: &SocialPreferences{
				Interests:   []string{"hiking", "jazz"},
				SocialLevel: f64Ptr(8),
			},
		},
	}

	fs, err := newTestBuilder(rec).Build(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fs.Version != vocab.Version {
		t.Errorf("version = %q, want %q", fs.Version, vocab.Version)
	}
	if len(fs.NameEmbedding) != embeddings.Dimensions {
		t.Errorf("name embedding len = %d, want %d", len(fs.NameEmbedding), embeddings.Dimensions)
	}
	if len(fs.OccupationEmbedding) != embeddings.Dimensions {
		t.Errorf("occupation embedding len = %d", len(fs.OccupationEmbedding))
	}
	if len(fs.InterestEmbeddings) != 2 || len(fs.CuisineEmbeddings) != 2 {
		t.Errorf("embedding maps: interests=%d cuisines=%d, want 2/2",
			len(fs.InterestEmbeddings), len(fs.CuisineEmbeddings))
	}

	dietVocab := vocab.MustFor(vocab.DimDietaryRestrictions)
	if len(fs.DietaryRestrictionsVector) != len(dietVocab) {
		t.Errorf("dietary vector len = %d, want %d", len(fs.DietaryRestrictionsVector), len(dietVocab))
	}
	if fs.DietaryRestrictionsVector[dietVocab.Index("vegetarian")] != 1 ||
		fs.DietaryRestrictionsVector[dietVocab.Index("vegan")] != 1 {
		t.Errorf("dietary vector missing expected positions: %v", fs.DietaryRestrictionsVector)
	}

	genderVocab := vocab.MustFor(vocab.DimGender)
	if fs.GenderVector[genderVocab.Index("non_binary")] != 1 {
		t.Errorf("gender vector = %v, want non_binary set", fs.GenderVector)
	}

	if fs.EducationNormalized == nil || *fs.EducationNormalized != 0.8 {
		t.Errorf("education normalized = %v, want 0.8", fs.EducationNormalized)
	}

	if fs.SocialLevel != 0.8 {
		t.Errorf("social level = %v, want 0.8", fs.SocialLevel)
	}
	// Missing sliders default to the midpoint.
	if fs.AdventureLevel != 0.5 || fs.FormalityLevel != 0.5 {
		t.Errorf("missing sliders = %v/%v, want 0.5/0.5", fs.AdventureLevel, fs.FormalityLevel)
	}

	if fs.Age == nil || *fs.Age != 30 {
		t.Fatalf("age = %v, want 30", fs.Age)
	}
	if *fs.AgeMin != 25 || *fs.AgeMax != 35 {
		t.Errorf("age window = [%d,%d], want [25,35]", *fs.AgeMin, *fs.AgeMax)
	}

	if fs.Latitude == nil || *fs.Latitude != 40.7 {
		t.Errorf("latitude = %v, want 40.7", fs.Latitude)
	}

	if fs.FeatureStats.Embeddings != 6 {
		t.Errorf("stats embeddings = %d, want 6", fs.FeatureStats.Embeddings)
	}
	if fs.FeatureStats.MultiHotVectors != 3 || fs.FeatureStats.OneHotVectors != 2 {
		t.Errorf("stats vectors = %d multi / %d one, want 3/2",
			fs.FeatureStats.MultiHotVectors, fs.FeatureStats.OneHotVectors)
	}
	if fs.FeatureStats.UnmatchedValues != 0 {
		t.Errorf("unmatched = %d, want 0", fs.FeatureStats.UnmatchedValues)
	}
}

func TestBuild_SparseRecordOmitsSlots(t *testing.T) {
	rec := &RawUserRecord{Account: &Account{ID: uuid.New()}}

	fs, err := newTestBuilder(rec).Build(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fs.NameEmbedding != nil || fs.GenderVector != nil || fs.Age != nil || fs.Latitude != nil {
		t.Error("expected absent slots for absent fields")
	}
	// Sliders are always emitted, even with no preferences row at all.
	if fs.SocialLevel != 0.5 || fs.AdventureLevel != 0.5 || fs.FormalityLevel != 0.5 {
		t.Errorf("sliders = %v/%v/%v, want midpoint defaults",
			fs.SocialLevel, fs.AdventureLevel, fs.FormalityLevel)
	}
}

func TestBuild_UnmatchedValuesCounted(t *testing.T) {
	rec := &RawUserRecord{
		Profile: &Profile{Gender: strPtr("unlisted")},
		Preferences: &Preferences{
			DietaryRestrictions: []string{"vegan", "keto", "carnivore"},
		},
	}

	fs, err := newTestBuilder(rec).Build(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.FeatureStats.UnmatchedValues != 3 {
		t.Errorf("unmatched = %d, want 3", fs.FeatureStats.UnmatchedValues)
	}
	// The vector itself is still emitted at full length.
	if len(fs.DietaryRestrictionsVector) != len(vocab.MustFor(vocab.DimDietaryRestrictions)) {
		t.Errorf("dietary vector truncated: %v", fs.DietaryRestrictionsVector)
	}
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		birth time.Time
		want  int
	}{
		{now.AddDate(-30, 0, -1), 30},
		{now.AddDate(-18, 0, -1), 18},
		{now.AddDate(0, -6, 0), 0},
		{now.AddDate(1, 0, 0), 0}, // future birth date clamps to 0
	}
	for _, tt := range tests {
		if got := ageAt(tt.birth, now); got != tt.want {
			t.Errorf("ageAt(%v) = %d, want %d", tt.birth, got, tt.want)
		}
	}
}
