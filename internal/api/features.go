package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/plately/featurizer/internal/store"
)

// Enqueuer accepts feature-processing requests.
type Enqueuer interface {
	ProcessUser(ctx context.Context, userID uuid.UUID, triggerSource string, priority int) error
}

// FeaturesHandler serves the trigger interface and the stored feature read.
type FeaturesHandler struct {
	features *store.FeatureStore
	queue    *store.QueueStore
	enqueuer Enqueuer
}

// NewFeaturesHandler creates a FeaturesHandler.
func NewFeaturesHandler(featureStore *store.FeatureStore, queue *store.QueueStore, enqueuer Enqueuer) *FeaturesHandler {
	return &FeaturesHandler{
		features: featureStore,
		queue:    queue,
		enqueuer: enqueuer,
	}
}

// EnqueueRequest is the body of POST /features/enqueue.
type EnqueueRequest struct {
	UserID        uuid.UUID `json:"user_id"`
	TriggerSource string    `json:"trigger_source"`
	Priority      *int      `json:"priority,omitempty"`
	MaxRetries    *int      `json:"max_retries,omitempty"`
}

// Enqueue handles POST /api/v1/features/enqueue: fire-and-forget request to
// (re)compute a user's features on the next poll.
func (h *FeaturesHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "user_id is required")
		return
	}
	if req.TriggerSource == "" {
		req.TriggerSource = "api"
	}
	priority := 5
	if req.Priority != nil {
		priority = *req.Priority
	}
	maxRetries := 3
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}

	enqueued, err := h.queue.Enqueue(r.Context(), req.UserID, req.TriggerSource, priority, maxRetries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "QUEUE_ERROR", "Failed to enqueue")
		return
	}

	writeSuccess(w, http.StatusAccepted, map[string]any{
		"user_id":  req.UserID,
		"enqueued": enqueued, // false when a non-terminal entry already exists
	})
}

// ProcessNow handles POST /api/v1/features/{user_id}/process: enqueue plus
// an immediate out-of-cycle poll for interactive reprocess requests.
func (h *FeaturesHandler) ProcessNow(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user ID")
		return
	}

	if err := h.enqueuer.ProcessUser(r.Context(), userID, "manual", 1); err != nil {
		writeError(w, http.StatusInternalServerError, "QUEUE_ERROR", "Failed to enqueue")
		return
	}

	writeSuccess(w, http.StatusAccepted, map[string]any{"user_id": userID})
}

// Get handles GET /api/v1/features/{user_id}: the stored FeatureSet plus
// processing status, as consumed by the matching engine.
func (h *FeaturesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user ID")
		return
	}

	sf, err := h.features.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "No features stored for user")
			return
		}
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read features")
		return
	}

	writeSuccess(w, http.StatusOK, sf)
}
