package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-navigator/internal/config"
	"github.com/couchcryptid/storm-navigator/internal/domain"
)

// Writer publishes playback events to a Kafka topic.
// It implements domain.EventPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured playback topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishPlayback serializes and publishes one playback event. Messages are
// keyed by scene id so per-scene ordering survives partitioning.
func (w *Writer) PublishPlayback(ctx context.Context, event domain.PlaybackEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PlaybackEvent into a Kafka message.
func serializeToMessage(event domain.PlaybackEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize playback event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.SceneID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tier", Value: []byte(event.Tier)},
			{Key: "started_at", Value: []byte(event.StartedAt.Format(time.RFC3339))},
		},
	}, nil
}
