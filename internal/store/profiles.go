package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/plately/featurizer/internal/features"
)

// ProfileStore reads the user rows written by the onboarding screens. This
// subsystem never writes them.
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a ProfileStore.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// RawUser assembles the account, profile, and preferences rows for a user.
// Missing rows leave their section nil; only query failures are errors.
func (s *ProfileStore) RawUser(ctx context.Context, userID uuid.UUID) (*features.RawUserRecord, error) {
	db := s.db.DBTX()
	rec := &features.RawUserRecord{}

	acct := &features.Account{}
	err := db.QueryRow(ctx, `
		SELECT id, display_name FROM accounts WHERE id = $1
	`, userID).Scan(&acct.ID, &acct.DisplayName)
	switch {
	case err == nil:
		rec.Account = acct
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("account %s: %w", userID, err)
	}

	prof := &features.Profile{}
	err = db.QueryRow(ctx, `
		SELECT user_id, gender, education_level, occupation, birth_date
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&prof.UserID, &prof.Gender, &prof.EducationLevel, &prof.Occupation, &prof.BirthDate)
	switch {
	case err == nil:
		rec.Profile = prof
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}

	prefs := &features.Preferences{}
	var socialRaw []byte
	err = db.QueryRow(ctx, `
		SELECT user_id, dietary_restrictions, preferred_cuisines, dining_atmospheres,
		       location_zip_code, social_preferences
		FROM preferences WHERE user_id = $1
	`, userID).Scan(&prefs.UserID, &prefs.DietaryRestrictions, &prefs.PreferredCuisines,
		&prefs.DiningAtmospheres, &prefs.LocationZipCode, &socialRaw)
	switch {
	case err == nil:
		if len(socialRaw) > 0 {
			social := &features.SocialPreferences{}
			if err := json.Unmarshal(socialRaw, social); err != nil {
				return nil, fmt.Errorf("social preferences %s: %w", userID, err)
			}
			prefs.Social = social
		}
		rec.Preferences = prefs
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("preferences %s: %w", userID, err)
	}

	return rec, nil
}
