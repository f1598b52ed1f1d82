package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/moajmalnk/bugricer-sub002/config"
)

// Activity event types emitted by the messaging core. Consumers (the
// platform's activity log) treat the stream as informational; nothing in the
// core depends on delivery.
const (
	EventMessageSent  = "message_sent"
	EventGroupCreated = "group_created"
	EventGroupDeleted = "group_deleted"
)

// ActivityEvent is the JSON payload published per activity.
type ActivityEvent struct {
	Type       string    `json:"type"`
	GroupID    string    `json:"group_id"`
	ProjectID  string    `json:"project_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	MessageID  string    `json:"message_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActivityProducer publishes activity events to Kafka.
// It wraps a sarama SyncProducer configured for idempotent, all-acks writes.
type ActivityProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewActivityProducer creates a producer connected to the configured brokers.
func NewActivityProducer(cfg *config.KafkaConfig) (*ActivityProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = cfg.Producer.MaxRetries
	saramaConfig.Producer.Retry.Backoff = time.Duration(cfg.Producer.RetryBackoffMs) * time.Millisecond
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Connection timeouts to prevent hanging on unreachable brokers
	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second
	saramaConfig.Metadata.Retry.Max = 3
	saramaConfig.Metadata.Retry.Backoff = 250 * time.Millisecond
	saramaConfig.Metadata.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &ActivityProducer{
		producer: producer,
		topic:    cfg.Topic,
	}, nil
}

// NewActivityProducerFromSarama wraps an existing sarama producer.
// Used by tests to run against sarama's mock producer.
func NewActivityProducerFromSarama(producer sarama.SyncProducer, topic string) *ActivityProducer {
	return &ActivityProducer{producer: producer, topic: topic}
}

// Emit publishes one activity event, keyed by group ID so events for the same
// group stay ordered within a partition.
func (p *ActivityProducer) Emit(ctx context.Context, event ActivityEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.GroupID),
		Value: sarama.ByteEncoder(value),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send activity event to topic %s: %w", p.topic, err)
	}
	return nil
}

// Close closes the Kafka producer and releases all resources.
func (p *ActivityProducer) Close() error {
	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			return fmt.Errorf("failed to close kafka producer: %w", err)
		}
	}
	return nil
}
