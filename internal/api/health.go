package api

import (
	"net/http"
	"time"

	"github.com/plately/featurizer/internal/events"
	"github.com/plately/featurizer/internal/store"
)

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	db        *store.DB
	nats      *events.Client
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. natsClient may be nil.
func NewHealthHandler(db *store.DB, natsClient *events.Client) *HealthHandler {
	return &HealthHandler{
		db:        db,
		nats:      natsClient,
		startTime: time.Now(),
	}
}

// Health returns the service health status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "connected"
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "disconnected"
	}

	natsStatus := "disconnected"
	if h.nats != nil && h.nats.IsConnected() {
		natsStatus = "connected"
	}

	resp := map[string]any{
		"status":         "healthy",
		"database":       dbStatus,
		"nats":           natsStatus,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}

	if dbStatus == "disconnected" {
		resp["status"] = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}
