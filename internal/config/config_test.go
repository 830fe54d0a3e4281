package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-strong-motion-records", cfg.KafkaSourceTopic)
	assert.Equal(t, "ground-motion-observations", cfg.KafkaSinkTopic)
	assert.Equal(t, "isprs-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)

	assert.Equal(t, "U", cfg.FaultType)
	assert.Equal(t, "Steel MRF", cfg.StructureType)
	assert.Equal(t, 20.0, cfg.BuildingHeight)
	assert.Equal(t, 350.0, cfg.DefaultVS30)

	assert.False(t, cfg.Vs30Enabled)
	assert.Empty(t, cfg.Vs30ServiceURL)
	assert.Equal(t, 5*time.Second, cfg.Vs30Timeout)
	assert.Equal(t, 1000, cfg.Vs30CacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("EVAL_FAULT_TYPE", "SS")
	t.Setenv("EVAL_STRUCTURE_TYPE", "Concrete MRF")
	t.Setenv("EVAL_BUILDING_HEIGHT", "35")
	t.Setenv("EVAL_DEFAULT_VS30", "500")
	t.Setenv("VS30_SERVICE_URL", "http://vs30.example.test/grid")
	t.Setenv("VS30_TIMEOUT", "10s")
	t.Setenv("VS30_CACHE_SIZE", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, "SS", cfg.FaultType)
	assert.Equal(t, "Concrete MRF", cfg.StructureType)
	assert.Equal(t, 35.0, cfg.BuildingHeight)
	assert.Equal(t, 500.0, cfg.DefaultVS30)
	assert.True(t, cfg.Vs30Enabled)
	assert.Equal(t, "http://vs30.example.test/grid", cfg.Vs30ServiceURL)
	assert.Equal(t, 10*time.Second, cfg.Vs30Timeout)
	assert.Equal(t, 250, cfg.Vs30CacheSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"negative batch size", "BATCH_SIZE", "-1"},
		{"zero building height", "EVAL_BUILDING_HEIGHT", "0"},
		{"bad vs30", "EVAL_DEFAULT_VS30", "soft"},
		{"bad cache size", "VS30_CACHE_SIZE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("vs30 enabled without url", func(t *testing.T) {
		t.Setenv("VS30_ENABLED", "true")
		_, err := Load()
		assert.Error(t, err)
	})
}
