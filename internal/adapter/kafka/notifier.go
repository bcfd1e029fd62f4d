// Package kafka publishes run reports to a Kafka topic so alerting
// consumers learn about completed (or quiet) forecast runs without
// polling the output directory.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/stormdrift/nowcast/internal/pipeline"
)

// Notifier produces one message per pipeline run. It implements
// pipeline.Notifier.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the run-report topic.
func NewNotifier(brokers []string, topic string, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify serializes and publishes a run report, keyed by run ID.
func (n *Notifier) Notify(ctx context.Context, rep pipeline.Report) error {
	msg, err := serializeReport(rep)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, msg)
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeReport marshals a run report into a Kafka message.
func serializeReport(rep pipeline.Report) (kafkago.Message, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rep.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "gate_open", Value: []byte(strconv.FormatBool(rep.GateOpen))},
			{Key: "completed_at", Value: []byte(rep.CompletedAt.Format(time.RFC3339))},
		},
	}, nil
}
