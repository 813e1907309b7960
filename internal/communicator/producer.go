package communicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bilal/transition-relay/internal/config"
	"github.com/bilal/transition-relay/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the mirror uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMirror publishes a copy of every relayed submission to Kafka.
type KafkaMirror struct {
	writer messageWriter
	topic  string
}

// NewKafkaMirror initializes the Kafka writer for cfg.Kafka.Topic.
func NewKafkaMirror(cfg *config.Config) (*KafkaMirror, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}

	log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka mirror initialized")

	return &KafkaMirror{writer: w, topic: cfg.Kafka.Topic}, nil
}

// Publish writes m keyed by callsign so one station's submissions stay ordered.
func (k *KafkaMirror) Publish(ctx context.Context, m MirrorRecord) error {
	data, err := json.Marshal(m)
	if err != nil {
		metrics.MirrorErrors.Inc()
		return fmt.Errorf("marshal mirror record: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(m.Callsign),
		Value: data,
		Headers: []kafka.Header{
			{Key: "correlation_id", Value: []byte(m.CorrelationID)},
			{Key: "operation", Value: []byte(m.Operation)},
		},
	})
	if err != nil {
		metrics.MirrorErrors.Inc()
		return fmt.Errorf("write to %s: %w", k.topic, err)
	}
	return nil
}

// Close shuts down the Kafka writer gracefully.
func (k *KafkaMirror) Close() error {
	log.Info().Msg("closing kafka mirror")
	return k.writer.Close()
}
