// Package worker drives the feature-encoding queue: it polls for pending
// entries, builds features for each claimed user with bounded parallelism,
// and translates per-entry outcomes into queue state transitions.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plately/featurizer/internal/features"
	"github.com/plately/featurizer/internal/store"
)

// Queue is the durable work list the worker drains.
type Queue interface {
	Enqueue(ctx context.Context, userID uuid.UUID, triggerSource string, priority, maxRetries int) (bool, error)
	ClaimBatch(ctx context.Context, limit int) ([]store.Entry, error)
	Complete(ctx context.Context, id uuid.UUID) error
	Retry(ctx context.Context, id uuid.UUID, message string, backoffBase time.Duration) (store.ProcessingStatus, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// FeatureStore persists build results and failure bookkeeping.
type FeatureStore interface {
	Upsert(ctx context.Context, fs *features.FeatureSet) error
	MarkFailed(ctx context.Context, userID uuid.UUID, message string) error
}

// Builder produces a FeatureSet for one user.
type Builder interface {
	Build(ctx context.Context, userID uuid.UUID) (*features.FeatureSet, error)
}

// ResultPublisher is notified of terminal outcomes. Implementations must not
// block; a nil publisher disables notifications.
type ResultPublisher interface {
	FeaturesUpdated(userID uuid.UUID, version string)
	FeaturesFailed(userID uuid.UUID, message string)
}

// Config holds worker tuning knobs.
type Config struct {
	BatchSize        int
	PollInterval     time.Duration
	RetryBackoffBase time.Duration
	Retention        time.Duration
	CleanupInterval  time.Duration
	MaxRetries       int // default retry budget for entries this worker enqueues
}

// withDefaults fills zero fields with the documented defaults.
func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = 30 * time.Second
	}
	if c.Retention <= 0 {
		c.Retention = 7 * 24 * time.Hour
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Hour
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// Worker owns the polling loop. Construct with New, then Start/Stop.
type Worker struct {
	queue     Queue
	features  FeatureStore
	builder   Builder
	publisher ResultPublisher
	cfg       Config
	logger    *slog.Logger

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Worker with its dependencies injected. publisher may be nil.
func New(queue Queue, featureStore FeatureStore, builder Builder, publisher ResultPublisher, cfg Config, logger *slog.Logger) *Worker {
	return &Worker{
		queue:     queue,
		features:  featureStore,
		builder:   builder,
		publisher: publisher,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		wake:      make(chan struct{}, 1),
	}
}

// Start launches the polling and cleanup loops. They run until ctx is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.logger.Info("worker starting",
		"batch_size", w.cfg.BatchSize, "poll_interval", w.cfg.PollInterval.String())

	w.wg.Add(2)
	go w.pollLoop(ctx)
	go w.cleanupLoop(ctx)
}

// Stop halts future polling and waits for in-flight builds to drain.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// ProcessUser enqueues a user and wakes the poller for an immediate
// out-of-cycle claim, giving interactive reprocess requests low latency.
func (w *Worker) ProcessUser(ctx context.Context, userID uuid.UUID, triggerSource string, priority int) error {
	enqueued, err := w.queue.Enqueue(ctx, userID, triggerSource, priority, w.cfg.MaxRetries)
	if err != nil {
		return err
	}
	if !enqueued {
		w.logger.Debug("enqueue deduplicated", "user_id", userID)
	}
	w.Wake()
	return nil
}

// Wake nudges the poller without waiting for the next tick. Non-blocking.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Worker) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	// Run once immediately
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker poll loop shutting down")
			return
		case <-ticker.C:
			w.poll(ctx)
		case <-w.wake:
			w.poll(ctx)
		}
	}
}

// poll claims one batch and processes it with bounded parallelism. Errors
// are contained per entry: one bad entry never stops the rest of the batch
// or future polls.
func (w *Worker) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	entries, err := w.queue.ClaimBatch(ctx, w.cfg.BatchSize)
	if err != nil {
		w.logger.Warn("claim batch failed", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	w.logger.Info("claimed queue entries", "count", len(entries))

	// In-flight builds drain even when Stop cancels the polling context.
	buildCtx := context.WithoutCancel(ctx)

	g, gctx := errgroup.WithContext(buildCtx)
	g.SetLimit(w.cfg.BatchSize)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			w.process(gctx, entry)
			return nil
		})
	}
	_ = g.Wait()
}

func (w *Worker) process(ctx context.Context, entry store.Entry) {
	started := time.Now()

	fs, err := w.builder.Build(ctx, entry.UserID)
	if err == nil {
		err = w.features.Upsert(ctx, fs)
	}

	if err != nil {
		w.handleFailure(ctx, entry, err)
		return
	}

	if cerr := w.queue.Complete(ctx, entry.ID); cerr != nil {
		w.logger.Warn("marking entry completed failed", "entry_id", entry.ID, "error", cerr)
	}
	if w.publisher != nil {
		w.publisher.FeaturesUpdated(entry.UserID, fs.Version)
	}
	w.logger.Info("features built",
		"user_id", entry.UserID, "trigger", entry.TriggerSource,
		"duration", time.Since(started).String())
}

func (w *Worker) handleFailure(ctx context.Context, entry store.Entry, buildErr error) {
	status, err := w.queue.Retry(ctx, entry.ID, buildErr.Error(), w.cfg.RetryBackoffBase)
	if err != nil {
		w.logger.Warn("recording retry failed", "entry_id", entry.ID, "error", err)
		return
	}

	if status != store.StatusFailed {
		w.logger.Warn("build failed, will retry",
			"user_id", entry.UserID, "retry_count", entry.RetryCount+1, "error", buildErr)
		return
	}

	w.logger.Error("build failed terminally",
		"user_id", entry.UserID, "max_retries", entry.MaxRetries, "error", buildErr)
	if merr := w.features.MarkFailed(ctx, entry.UserID, buildErr.Error()); merr != nil {
		w.logger.Warn("marking features failed errored", "user_id", entry.UserID, "error", merr)
	}
	if w.publisher != nil {
		w.publisher.FeaturesFailed(entry.UserID, buildErr.Error())
	}
}

func (w *Worker) cleanupLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := w.queue.Cleanup(ctx, w.cfg.Retention)
			if err != nil {
				w.logger.Warn("queue cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				w.logger.Info("queue cleanup", "removed", removed)
			}
		}
	}
}
