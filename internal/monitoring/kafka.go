package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/howlrs/pos-qr-go/internal/config"
)

// MessageWriter is the part of *kafka.Writer the reporter uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaReporter publishes reports as JSON to a Kafka topic
type KafkaReporter struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaReporter(writer MessageWriter) *KafkaReporter {
	return &KafkaReporter{writer: writer, timeout: 5 * time.Second}
}

// NewKafkaWriter creates the writer for the configured brokers and topic
func NewKafkaWriter(cfg config.Monitoring) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

// Report publishes rep keyed by boundary name
func (r *KafkaReporter) Report(ctx context.Context, rep Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rep.Boundary),
		Value: payload,
		Time:  rep.Timestamp,
	}); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	return nil
}
