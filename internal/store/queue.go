package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Entry is one unit of feature-encoding work.
//
// At most one non-terminal (pending/processing) entry exists per user; the
// feature_queue table enforces this with a partial unique index on user_id,
// which makes enqueue dedup atomic with respect to concurrent claims.
type Entry struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	TriggerSource string           `json:"trigger_source"`
	Priority      int              `json:"priority"`
	Status        ProcessingStatus `json:"status"`
	RetryCount    int              `json:"retry_count"`
	MaxRetries    int              `json:"max_retries"`
	ErrorMessage  *string          `json:"error_message,omitempty"`
	NotBefore     time.Time        `json:"not_before"`
	CreatedAt     time.Time        `json:"created_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// Stats aggregates queue state for observability.
type Stats struct {
	Pending          int           `json:"pending"`
	Processing       int           `json:"processing"`
	Completed        int           `json:"completed"`
	Failed           int           `json:"failed"`
	MeanProcessing   time.Duration `json:"-"`
	MeanProcessingMS int64         `json:"mean_processing_ms"`
}

// QueueStore is the durable processing queue backed by Postgres.
type QueueStore struct {
	db *DB
}

// NewQueueStore creates a QueueStore.
func NewQueueStore(db *DB) *QueueStore {
	return &QueueStore{db: db}
}

// Enqueue inserts a pending entry for the user. If a non-terminal entry
// already exists the insert is a no-op and enqueued is false.
func (s *QueueStore) Enqueue(ctx context.Context, userID uuid.UUID, triggerSource string, priority, maxRetries int) (enqueued bool, err error) {
	tag, err := s.db.DBTX().Exec(ctx, `
		INSERT INTO feature_queue (id, user_id, trigger_source, priority, status, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) WHERE status IN ('pending', 'processing') DO NOTHING
	`, uuid.New(), userID, triggerSource, priority, StatusPending, maxRetries)
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimBatch atomically selects up to limit claimable entries, ordered by
// (priority, created_at), and marks them processing. SKIP LOCKED keeps two
// concurrent polls (or worker instances) from claiming the same entry.
func (s *QueueStore) ClaimBatch(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.DBTX().Query(ctx, `
		UPDATE feature_queue SET status = 'processing', started_at = now()
		WHERE id IN (
			SELECT id FROM feature_queue
			WHERE status = 'pending' AND not_before <= now()
			ORDER BY priority, created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, trigger_source, priority, status, retry_count,
		          max_retries, error_message, not_before, created_at, started_at, completed_at
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.TriggerSource, &e.Priority, &e.Status,
			&e.RetryCount, &e.MaxRetries, &e.ErrorMessage, &e.NotBefore,
			&e.CreatedAt, &e.StartedAt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan claimed entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Complete marks an entry completed.
func (s *QueueStore) Complete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.DBTX().Exec(ctx, `
		UPDATE feature_queue SET status = 'completed', completed_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("complete entry %s: %w", id, err)
	}
	return nil
}

// Retry records a recoverable failure. The entry re-enters the queue as
// pending with an exponential not-before delay (base * 2^retry_count), or
// turns terminally failed once the retry budget is spent. The resulting
// status is returned so the caller can react to terminal failures.
func (s *QueueStore) Retry(ctx context.Context, id uuid.UUID, message string, backoffBase time.Duration) (ProcessingStatus, error) {
	var status ProcessingStatus
	err := s.db.DBTX().QueryRow(ctx, `
		UPDATE feature_queue SET
			retry_count = LEAST(retry_count + 1, max_retries),
			error_message = $2,
			status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
			not_before = CASE WHEN retry_count + 1 >= max_retries
				THEN not_before
				ELSE now() + $3 * power(2, retry_count + 1) END,
			completed_at = CASE WHEN retry_count + 1 >= max_retries THEN now() ELSE NULL END,
			started_at = CASE WHEN retry_count + 1 >= max_retries THEN started_at ELSE NULL END
		WHERE id = $1
		RETURNING status
	`, id, message, backoffBase).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("retry entry %s: %w", id, err)
	}
	return status, nil
}

// QueueStats returns per-status counts and the mean processing duration of
// completed entries.
func (s *QueueStore) QueueStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var meanSeconds *float64
	err := s.db.DBTX().QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'processing'),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'failed'),
			extract(epoch FROM avg(completed_at - started_at) FILTER (WHERE status = 'completed'))
		FROM feature_queue
	`).Scan(&stats.Pending, &stats.Processing, &stats.Completed, &stats.Failed, &meanSeconds)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	if meanSeconds != nil {
		stats.MeanProcessing = time.Duration(*meanSeconds * float64(time.Second))
		stats.MeanProcessingMS = int64(math.Round(*meanSeconds * 1000))
	}
	return stats, nil
}

// Cleanup removes terminal entries older than the retention horizon and
// returns how many were deleted. Housekeeping only: correctness of the
// state machine does not depend on it.
func (s *QueueStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.db.DBTX().Exec(ctx, `
		DELETE FROM feature_queue
		WHERE status IN ('completed', 'failed')
		  AND coalesce(completed_at, created_at) < now() - $1
	`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("queue cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}
