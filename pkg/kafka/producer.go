// Package kafka wraps segmentio/kafka-go for the two streams the query
// engine touches: search analytics events it publishes and cache
// invalidation notices it consumes. Values travel as JSON.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/config"
)

// Message is one record to publish. Key drives partitioning; Value is
// JSON-encoded.
type Message struct {
	Key   string
	Value any
}

// Producer publishes JSON messages to one topic.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish writes messages in a single call.
func (p *Producer) Publish(ctx context.Context, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	out, err := encode(messages)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		p.logger.Error("failed to publish", "count", len(out), "error", err)
		return fmt.Errorf("publishing %d messages to kafka: %w", len(out), err)
	}
	p.logger.Debug("published", "count", len(out))
	return nil
}

func encode(messages []Message) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(messages))
	for _, m := range messages {
		value, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("marshaling message %q: %w", m.Key, err)
		}
		out = append(out, kafka.Message{Key: []byte(m.Key), Value: value})
	}
	return out, nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}
