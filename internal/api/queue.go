package api

import (
	"net/http"

	"github.com/plately/featurizer/internal/store"
)

// QueueHandler exposes queue observability.
type QueueHandler struct {
	queue *store.QueueStore
}

// NewQueueHandler creates a QueueHandler.
func NewQueueHandler(queue *store.QueueStore) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Stats handles GET /api/v1/queue/stats.
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queue.QueueStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read queue stats")
		return
	}
	writeSuccess(w, http.StatusOK, stats)
}
