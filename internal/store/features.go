package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/plately/featurizer/internal/features"
)

// ProcessingStatus tracks the lifecycle of a user's stored features.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// StoredFeatures is a FeatureSet plus the processing bookkeeping the
// matching engine reads alongside it.
type StoredFeatures struct {
	FeatureSet   features.FeatureSet `json:"feature_set"`
	Status       ProcessingStatus    `json:"processing_status"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	ProcessedAt  *time.Time          `json:"processed_at,omitempty"`
}

// FeatureStore persists one FeatureSet per user. Upserts fully replace the
// prior row; nothing in this subsystem ever deletes a feature row.
type FeatureStore struct {
	db *DB
}

// NewFeatureStore creates a FeatureStore.
func NewFeatureStore(db *DB) *FeatureStore {
	return &FeatureStore{db: db}
}

// Upsert replaces the user's features and stamps the row completed. The name
// embedding is duplicated into a vector column for the matching engine's
// nearest-neighbor queries.
func (s *FeatureStore) Upsert(ctx context.Context, fs *features.FeatureSet) error {
	payload, err := json.Marshal(fs)
	if err != nil {
		return fmt.Errorf("marshaling features %s: %w", fs.UserID, err)
	}

	var nameVec *pgvector.Vector
	if fs.NameEmbedding != nil {
		v := pgvector.NewVector(fs.NameEmbedding)
		nameVec = &v
	}

	_, err = s.db.DBTX().Exec(ctx, `
		INSERT INTO user_features (user_id, payload, name_embedding, version, processing_status, error_message, processed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			name_embedding = EXCLUDED.name_embedding,
			version = EXCLUDED.version,
			processing_status = EXCLUDED.processing_status,
			error_message = NULL,
			processed_at = now(),
			updated_at = now()
	`, fs.UserID, payload, nameVec, fs.Version, StatusCompleted)
	if err != nil {
		return fmt.Errorf("upserting features %s: %w", fs.UserID, err)
	}
	return nil
}

// MarkFailed records a terminal processing failure, keeping the error text
// for operator diagnosis. Any previously stored payload is left in place.
func (s *FeatureStore) MarkFailed(ctx context.Context, userID uuid.UUID, message string) error {
	_, err := s.db.DBTX().Exec(ctx, `
		INSERT INTO user_features (user_id, processing_status, error_message, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET
			processing_status = EXCLUDED.processing_status,
			error_message = EXCLUDED.error_message,
			updated_at = now()
	`, userID, StatusFailed, message)
	if err != nil {
		return fmt.Errorf("marking features failed %s: %w", userID, err)
	}
	return nil
}

// Get fetches a user's stored features and status.
func (s *FeatureStore) Get(ctx context.Context, userID uuid.UUID) (*StoredFeatures, error) {
	var (
		payload []byte
		sf      StoredFeatures
	)
	err := s.db.DBTX().QueryRow(ctx, `
		SELECT payload, processing_status, error_message, processed_at
		FROM user_features WHERE user_id = $1
	`, userID).Scan(&payload, &sf.Status, &sf.ErrorMessage, &sf.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("get features %s: %w", userID, err)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &sf.FeatureSet); err != nil {
			return nil, fmt.Errorf("parsing features %s: %w", userID, err)
		}
	}
	return &sf, nil
}
