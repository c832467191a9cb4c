package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Priorities assigned to each trigger source. Lower runs sooner.
const (
	priorityOnboarding = 3
	priorityUpdate     = 5
	priorityReprocess  = 1
)

// Enqueuer accepts feature-processing requests. The worker implements it.
type Enqueuer interface {
	ProcessUser(ctx context.Context, userID uuid.UUID, triggerSource string, priority int) error
}

// Subscriber turns onboarding and admin events into queue entries.
type Subscriber struct {
	client   *Client
	enqueuer Enqueuer
	logger   *slog.Logger
	subs     []*nats.Subscription
}

// NewSubscriber creates a Subscriber.
func NewSubscriber(client *Client, enqueuer Enqueuer, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		client:   client,
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// TriggerEvent is the payload published by onboarding and admin tooling.
type TriggerEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

// Start subscribes to the trigger subjects.
func (s *Subscriber) Start(ctx context.Context) error {
	subjects := map[string]int{
		"user.onboarding.completed":    priorityOnboarding,
		"user.profile.updated":         priorityUpdate,
		"features.reprocess.requested": priorityReprocess,
	}

	for subject, priority := range subjects {
		handler := s.triggerHandler(ctx, subject, priority)
		// Try a JetStream durable consumer first, fall back to core NATS
		sub, err := s.client.js.Subscribe(subject, handler,
			nats.Durable("featurizer-"+sanitizeSubject(subject)),
			nats.DeliverAll(),
			nats.AckExplicit(),
			nats.MaxDeliver(3),
		)
		if err != nil {
			s.logger.Warn("JetStream subscribe failed, using core NATS", "subject", subject, "error", err)
			sub, err = s.client.conn.Subscribe(subject, handler)
			if err != nil {
				return fmt.Errorf("subscribing to %s: %w", subject, err)
			}
		}
		s.subs = append(s.subs, sub)
		s.logger.Info("subscribed to trigger subject", "subject", subject)
	}

	return nil
}

// Stop unsubscribes from all subjects.
func (s *Subscriber) Stop() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

func (s *Subscriber) triggerHandler(ctx context.Context, subject string, priority int) func(*nats.Msg) {
	return func(msg *nats.Msg) {
		var event TriggerEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Warn("malformed trigger event", "subject", subject, "error", err)
			s.ack(msg)
			return
		}
		if event.UserID == uuid.Nil {
			s.logger.Warn("trigger event without user_id", "subject", subject)
			s.ack(msg)
			return
		}

		if err := s.enqueuer.ProcessUser(ctx, event.UserID, subject, priority); err != nil {
			s.logger.Warn("enqueue from trigger failed", "subject", subject, "user_id", event.UserID, "error", err)
			// No ack: let JetStream redeliver up to MaxDeliver.
			return
		}
		s.ack(msg)
	}
}

func (s *Subscriber) ack(msg *nats.Msg) {
	if err := msg.Ack(); err != nil && err != nats.ErrMsgNoReply {
		s.logger.Debug("ack failed", "error", err)
	}
}

func sanitizeSubject(subject string) string {
	return strings.NewReplacer(".", "-", "*", "any", ">", "all").Replace(subject)
}
