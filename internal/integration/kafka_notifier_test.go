//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/stormdrift/nowcast/internal/adapter/kafka"
	"github.com/stormdrift/nowcast/internal/engine"
	"github.com/stormdrift/nowcast/internal/grid"
	"github.com/stormdrift/nowcast/internal/observability"
	"github.com/stormdrift/nowcast/internal/pipeline"
)

const testTopic = "nowcast-runs-test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka boots a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID(fmt.Sprintf("test-cluster-%d", time.Now().UnixNano())))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// readReport reads one message from the topic and deserializes the
// run report.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) (pipeline.Report, map[string]string) {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read run report")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rep pipeline.Report
	require.NoError(t, json.Unmarshal(msg.Value, &rep))
	require.Equal(t, rep.RunID, string(msg.Key), "message keyed by run ID")
	return rep, headers
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestNotifierRoundTrip verifies the notifier publishes a report that a
// plain consumer can read back intact.
func TestNotifierRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	notifier := kafka.NewNotifier([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	sent := pipeline.Report{
		RunID:         "run-integration-1",
		GateOpen:      true,
		Frames:        5,
		Size:          256,
		Members:       24,
		Leadtimes:     30,
		EngineSeconds: 42.5,
		TotalSeconds:  44.0,
		CompletedAt:   time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, notifier.Notify(ctx, sent))

	got, headers := readReport(ctx, t, newConsumer(t, broker))
	assert.Equal(t, sent, got)
	assert.Equal(t, "true", headers["gate_open"])

	_, err := time.Parse(time.RFC3339, headers["completed_at"])
	assert.NoError(t, err, "completed_at should be valid RFC3339")
}

// --- in-memory collaborators for the end-to-end run ---

type memSource struct{ seq grid.CountSequence }

func (m *memSource) Load(context.Context) (grid.CountSequence, error) { return m.seq, nil }

type memEngine struct{ dbr float64 }

func (m *memEngine) Forecast(_ context.Context, seq grid.LogSequence, p engine.Params) (grid.LogEnsemble, error) {
	ens := grid.NewEnsemble(p.Members, p.Leadtimes, seq[0].H, seq[0].W)
	for i := range ens.Data {
		ens.Data[i] = m.dbr
	}
	return grid.LogEnsemble{Ensemble: ens}, nil
}

type memSink struct{ wrote bool }

func (m *memSink) Write(context.Context, grid.RateEnsemble, grid.Summary) error {
	m.wrote = true
	return nil
}

func history(size int, counts float64) grid.CountSequence {
	seq := make(grid.CountSequence, grid.SequenceLength)
	for i := range seq {
		g := grid.New(size, size)
		for k := range g.Data {
			g.Data[k] = counts
		}
		seq[i] = grid.CountFrame{Grid: g}
	}
	return seq
}

// TestPipelinePublishesRunReport wires the pipeline to a real broker
// and checks that both terminal states land on the topic.
func TestPipelinePublishesRunReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	notifier := kafka.NewNotifier([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	sink := &memSink{}
	wet := pipeline.New(&memSource{seq: history(16, 150)}, &memEngine{dbr: 10}, sink,
		discardLogger(), observability.NewMetrics(), engine.Params{Leadtimes: 3, Members: 2, Workers: 1})
	wet.SetNotifier(notifier)

	rep, err := wet.Run(ctx)
	require.NoError(t, err)
	require.True(t, rep.GateOpen)
	require.True(t, sink.wrote)

	// A dry run publishes a gate-closed report on the same topic.
	dry := pipeline.New(&memSource{seq: history(16, 0)}, &memEngine{dbr: 10}, &memSink{},
		discardLogger(), observability.NewMetrics(), engine.Params{Leadtimes: 3, Members: 2, Workers: 1})
	dry.SetNotifier(notifier)

	dryRep, err := dry.Run(ctx)
	require.NoError(t, err)
	require.False(t, dryRep.GateOpen)

	consumer := newConsumer(t, broker)

	got, headers := readReport(ctx, t, consumer)
	assert.Equal(t, rep.RunID, got.RunID)
	assert.True(t, got.GateOpen)
	assert.Equal(t, 2, got.Members)
	assert.Equal(t, 3, got.Leadtimes)
	assert.Equal(t, "true", headers["gate_open"])

	got, headers = readReport(ctx, t, consumer)
	assert.Equal(t, dryRep.RunID, got.RunID)
	assert.False(t, got.GateOpen)
	assert.Zero(t, got.Members)
	assert.Equal(t, "false", headers["gate_open"])
}
