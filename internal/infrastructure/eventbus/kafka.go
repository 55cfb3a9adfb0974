package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/obligent/obligent/internal/domain"
)

// kafkaWriter is the slice of kafka.Writer the subscriber needs.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSubscriber publishes terminal intent events to a Kafka topic
// for external consumers. Messages are keyed by debit account id, so
// the hash balancer keeps per-account ordering within a partition.
type KafkaSubscriber struct {
	writer kafkaWriter
}

// KafkaConfig configures the egress writer.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaSubscriber creates the egress subscriber.
func NewKafkaSubscriber(cfg KafkaConfig) (*KafkaSubscriber, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		trimmed := strings.TrimSpace(b)
		if trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka topic required")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaSubscriber{writer: w}, nil
}

func (s *KafkaSubscriber) Name() string { return "kafka-egress" }

// Handle publishes terminal events; everything else is ignored.
func (s *KafkaSubscriber) Handle(ctx context.Context, event *domain.OutboxEvent) error {
	switch event.EventType {
	case domain.EventTypeIntentFinalized, domain.EventTypeIntentRejected:
	default:
		return nil
	}

	value, err := json.Marshal(map[string]any{
		"event_id":   event.ID,
		"event_type": event.EventType,
		"payload":    event.Payload,
	})
	if err != nil {
		return err
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(messageKey(event)),
		Value: value,
	})
}

// Close flushes and closes the writer.
func (s *KafkaSubscriber) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// messageKey picks the partition key: the debit account for finalized
// intents, falling back to the aggregate id.
func messageKey(event *domain.OutboxEvent) string {
	if event.EventType == domain.EventTypeIntentFinalized {
		var payload domain.IntentFinalizedEvent
		if err := domain.DecodePayload(event, &payload); err == nil && payload.DebitAccountID != "" {
			return payload.DebitAccountID
		}
	}

	return event.AggregateID
}
