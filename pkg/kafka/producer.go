// Package kafka publishes JSON events through segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Search-Engine/pkg/resilience"
)

// Event is the unit of data published to Kafka. Key is used for partition
// hashing and Value is JSON-serialised.
type Event struct {
	Key   string
	Value any
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON-encoded events to a single topic.
type Producer struct {
	writer messageWriter
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  1,
		RequiredAcks: kafka.RequireAll,
	}
	return newProducer(w, topic)
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{
		writer: w,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
		},
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes one event, retrying transient broker errors.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	err = resilience.Retry(ctx, "kafka-publish", p.retry, func(ctx context.Context) error {
		return p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.logger.Error("failed to publish message", "key", event.Key, "error", err)
		return fmt.Errorf("publishing to kafka: %w", err)
	}
	p.logger.Debug("message published", "key", event.Key, "value_size", len(msg.Value))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func encode(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling event value: %w", err)
	}
	return kafka.Message{Key: []byte(event.Key), Value: value}, nil
}
