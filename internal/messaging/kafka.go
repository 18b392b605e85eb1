package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/config"
)

const (
	EventRecommendationsGenerated = "recommendations.generated"
	EventRecommendationsExported  = "recommendations.exported"
)

type RecommendationEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	Type      string    `json:"type"`
	ResultID  uuid.UUID `json:"result_id"`
	UserID    *int      `json:"user_id,omitempty"`
	MovieIDs  []int     `json:"movie_ids"`
	Genres    []string  `json:"genres,omitempty"`
	Mode      string    `json:"mode"`
	Fallback  bool      `json:"fallback"`
	Filename  string    `json:"filename,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the fields every consumer relies on.
func (e RecommendationEvent) Validate() error {
	if e.EventID == uuid.Nil {
		return fmt.Errorf("event_id is required")
	}
	switch e.Type {
	case EventRecommendationsGenerated, EventRecommendationsExported:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.ResultID == uuid.Nil {
		return fmt.Errorf("result_id is required")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// messageWriter is the part of *kafka.Writer the bus uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventBus publishes recommendation events to Kafka. A bus built without
// brokers drops events, so the service runs without Kafka.
type EventBus struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *logrus.Logger
}

func NewEventBus(cfg *config.Config, logger *logrus.Logger) *EventBus {
	bus := &EventBus{
		topic:   cfg.Kafka.Topic,
		timeout: 5 * time.Second,
		logger:  logger,
	}

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("Kafka brokers not configured, recommendation events disabled")
		return bus
	}

	bus.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{}, // Key by user for per-user ordering
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}
	return bus
}

func (b *EventBus) Enabled() bool {
	return b != nil && b.writer != nil
}

// Publish writes one event. It is a no-op when the bus is disabled.
func (b *EventBus) Publish(ctx context.Context, event RecommendationEvent) error {
	if !b.Enabled() {
		return nil
	}

	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := "anonymous"
	if event.UserID != nil {
		key = strconv.Itoa(*event.UserID)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "result_id", Value: []byte(event.ResultID.String())},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to Kafka: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"event_type": event.Type,
		"result_id":  event.ResultID,
		"topic":      b.topic,
	}).Debug("Event published to Kafka")

	return nil
}

func (b *EventBus) Close() error {
	if !b.Enabled() {
		return nil
	}
	if err := b.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}
