// Package server provides the HTTP server setup for the featurizer.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/plately/featurizer/internal/api"
	"github.com/plately/featurizer/internal/config"
	"github.com/plately/featurizer/internal/events"
	"github.com/plately/featurizer/internal/middleware"
	"github.com/plately/featurizer/internal/store"
)

// Server holds all dependencies for the featurizer HTTP server.
type Server struct {
	Router *chi.Mux
	Config *config.Config
	DB     *store.DB
	Logger *slog.Logger
}

// New creates a new Server with all routes configured. natsClient and
// enqueuer may come from a running worker; enqueuer must not be nil.
func New(cfg *config.Config, db *store.DB, natsClient *events.Client, enqueuer api.Enqueuer, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))

	// Stores
	featureStore := store.NewFeatureStore(db)
	queueStore := store.NewQueueStore(db)

	// Handlers
	healthHandler := api.NewHealthHandler(db, natsClient)
	featuresHandler := api.NewFeaturesHandler(featureStore, queueStore, enqueuer)
	queueHandler := api.NewQueueHandler(queueStore)

	// Rate limiter for write endpoints
	enqueueRL := middleware.NewRateLimiter(cfg.EnqueueRateLimit, cfg.RateWindow)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (no rate limit)
		r.Get("/health", healthHandler.Health)

		r.Route("/features", func(r chi.Router) {
			r.Get("/{user_id}", featuresHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(enqueueRL.Middleware)
				r.Post("/enqueue", featuresHandler.Enqueue)
				r.Post("/{user_id}/process", featuresHandler.ProcessNow)
			})
		})

		r.Get("/queue/stats", queueHandler.Stats)
	})

	return &Server{
		Router: r,
		Config: cfg,
		DB:     db,
		Logger: logger,
	}
}
