//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/justinschembri/isprs/internal/adapter/kafka"
	"github.com/justinschembri/isprs/internal/config"
	"github.com/justinschembri/isprs/internal/gmpe"
	"github.com/justinschembri/isprs/internal/gmpe/bssa13"
	"github.com/justinschembri/isprs/internal/observability"
	"github.com/justinschembri/isprs/internal/parser"
	"github.com/justinschembri/isprs/internal/pipeline"
	"github.com/justinschembri/isprs/internal/sensorthings"
	"github.com/justinschembri/isprs/internal/structure"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka spins up a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
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

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, groupSuffix string) *config.Config {
	return &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-%s-%d", groupSuffix, time.Now().UnixNano()),
	}
}

func newTestTransformer() *pipeline.RecordTransformer {
	return pipeline.NewRecordTransformer(
		parser.CSMIPV2LineMap(),
		gmpe.NewEvaluator(bssa13.NewDefault()),
		bssa13.DefaultTable(),
		nil,
		pipeline.SiteDefaults{
			StructureType:  structure.SteelMRF,
			BuildingHeight: 20,
			VS30:           350,
			Fault:          gmpe.FaultUnspecified,
		},
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
}

// csmipRecord builds a valid CSMIP V2 header for one station/magnitude pair.
func csmipRecord(recordID string, stationNumber int, magnitude float64) string {
	lines := []string{
		fmt.Sprintf("CORRECTED ACCELEROGRAM %s CHANNEL 3", recordID),
		"LOMA PRIETA EARTHQUAKE",
		"OCTOBER 17, 1989 17:04 PDT",
		"TRIGGER TIME: 10/17/89 17:04:12.3 PDT",
		fmt.Sprintf("%-10s%-10s%-12s", strconv.Itoa(stationNumber), "37.04N", "121.80W"),
		fmt.Sprintf("%-40s%-10s", "SMA-1", "1234"),
		fmt.Sprintf("%-40s%-40s", "SARATOGA - ALOHA AVE", "1-STORY SCHOOL BLDG"),
		"HYPOCENTER: 37.04N 121.88W 18.0 KM",
		fmt.Sprintf("MW: %.1f", magnitude),
		fmt.Sprintf("%-10s%-10s%-10s%-10s", "0.039", "0.57", "1.9", "40.0"),
		"PEAK ACCELERATION = 312.5 CM/SEC/SEC AT 4.28 SEC",
	}
	return strings.Join(lines, "\n") + "\n"
}

// sinkMessage holds a deserialized message read from the sink topic.
type sinkMessage struct {
	Observation sensorthings.Observation
	Key         string
	Headers     map[string]string
}

// readSink reads a single message from the sink consumer and deserializes it.
func readSink(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var obs sensorthings.Observation
	require.NoError(t, json.Unmarshal(msg.Value, &obs), "unmarshal sink message")

	return sinkMessage{
		Observation: obs,
		Key:         string(msg.Key),
		Headers:     headers,
	}
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter verifies the adapter layer round-trips a record
// through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "reader")

	payload := []byte(csmipRecord("57217-S2420-89290.05", 57217, 6.9))
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Extract via the reader. Retry because the consumer group may need time
	// to rebalance before partitions are assigned.
	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []pipeline.RawRecord
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	// Transform and load via the writer.
	out, err := newTestTransformer().Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []pipeline.OutputEvent{out}))

	// Read from the sink topic and verify headers + value.
	sm := readSink(ctx, t, newSinkConsumer(t, broker))
	assert.Equal(t, "57217-S2420-89290.05", sm.Key)
	assert.Equal(t, "BSSA13", sm.Headers["model"])
	assert.Equal(t, "57217", sm.Headers["station"])
	assert.Equal(t, 6.9, sm.Observation.Parameters["magnitude"])
}

// TestPipelineEndToEnd wires the full pipeline (Reader, Transformer, Writer)
// against real Kafka and verifies every record becomes an observation.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "pipeline")

	magnitudes := []float64{5.0, 5.8, 6.3, 6.9, 7.2}
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(magnitudes))
	for i, m := range magnitudes {
		recordID := fmt.Sprintf("57217-S%04d-89290.%02d", i, i)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(recordID),
			Value: []byte(csmipRecord(recordID, 57217, m)),
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTestTransformer(), writer, discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)

	received := make(map[string]sinkMessage, len(magnitudes))
	for len(received) < len(magnitudes) {
		sm := readSink(ctx, t, consumer)
		received[sm.Key] = sm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	require.Len(t, received, len(magnitudes))
	for key, sm := range received {
		assert.Equal(t, "BSSA13", sm.Headers["model"], "record %s", key)

		intensity, ok := sm.Observation.Result.(float64)
		require.True(t, ok, "record %s result should be a number", key)
		assert.False(t, sm.Observation.PhenomenonTime.IsZero(), "record %s missing phenomenon time", key)
		assert.NotZero(t, intensity, "record %s intensity", key)
	}

	// Larger magnitudes must predict larger intensities at the same site.
	m50 := received["57217-S0000-89290.00"].Observation.Result.(float64)
	m72 := received["57217-S0004-89290.04"].Observation.Result.(float64)
	assert.Greater(t, m72, m50)
}

// TestPipelineTransformError verifies that a malformed record (poison pill)
// is skipped and the pipeline continues processing valid records.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, "poison")

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not a strong-motion record")},
		kafkago.Message{Key: []byte("good"), Value: []byte(csmipRecord("57217-S2420-89290.05", 57217, 6.9))},
	))

	reader := kafkaadapter.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTestTransformer(), writer, discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(t, broker)

	// Only the valid record should appear on the sink topic.
	sm := readSink(ctx, t, consumer)
	assert.Equal(t, "57217-S2420-89290.05", sm.Key)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
