package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Subjects for published outcome events.
const (
	SubjectFeaturesUpdated = "features.updated"
	SubjectFeaturesFailed  = "features.failed"
)

// Publisher publishes processing outcomes so the matching engine can react
// without polling. Publish failures are logged and dropped: outcome events
// are best-effort, the stored processing_status is the source of truth.
type Publisher struct {
	client *Client
	logger *slog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(client *Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// OutcomeEvent is the envelope for feature processing outcomes.
type OutcomeEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Version   string    `json:"version,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *Publisher) publish(subject string, event OutcomeEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshaling outcome event", "subject", subject, "error", err)
		return
	}
	if err := p.client.conn.Publish(subject, data); err != nil {
		p.logger.Warn("publishing outcome event", "subject", subject, "error", err)
		return
	}
	p.logger.Debug("published event", "subject", subject, "user_id", event.UserID)
}

// FeaturesUpdated announces a successful (re)build of a user's features.
func (p *Publisher) FeaturesUpdated(userID uuid.UUID, version string) {
	p.publish(SubjectFeaturesUpdated, OutcomeEvent{
		UserID:    userID,
		Version:   version,
		Timestamp: time.Now().UTC(),
	})
}

// FeaturesFailed announces a terminal processing failure.
func (p *Publisher) FeaturesFailed(userID uuid.UUID, message string) {
	p.publish(SubjectFeaturesFailed, OutcomeEvent{
		UserID:    userID,
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
}
