package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Conava/Fortalis-Auth/internal/events"
)

// Producer publishes auth events to a kafka topic, keyed by subject so all
// events for one account land in the same partition.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a kafka producer for the given brokers and topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &Producer{writer: writer, logger: logger}
}

// Publish sends one event. The payload is the JSON encoding of the event.
func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("subject", event.Subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish event %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

var _ events.Publisher = (*Producer)(nil)
