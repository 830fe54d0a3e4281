// Package config loads service settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
	BatchSize        int

	// Evaluation defaults applied to every ingested record. Strong-motion
	// headers carry magnitude and coordinates but not the building under
	// assessment, so the target structure is configured per deployment.
	FaultType      string
	StructureType  string
	BuildingHeight float64 // metres
	DefaultVS30    float64 // m/s, used when the vs30 service is disabled or fails

	// Site-conditions (vs30 grid) service configuration.
	Vs30ServiceURL string
	Vs30Enabled    bool
	Vs30Timeout    time.Duration
	Vs30CacheSize  int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	vs30Timeout, err := parseDuration("VS30_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	vs30CacheSize, err := parsePositiveInt("VS30_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	buildingHeight, err := parsePositiveFloat("EVAL_BUILDING_HEIGHT", 20)
	if err != nil {
		return nil, err
	}
	defaultVS30, err := parsePositiveFloat("EVAL_DEFAULT_VS30", 350)
	if err != nil {
		return nil, err
	}

	vs30URL := os.Getenv("VS30_SERVICE_URL")
	vs30Enabled := vs30URL != ""
	if v := os.Getenv("VS30_ENABLED"); v != "" {
		vs30Enabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-strong-motion-records"),
		KafkaSinkTopic:   envOrDefault("KAFKA_SINK_TOPIC", "ground-motion-observations"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "isprs-etl"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		BatchSize:        batchSize,

		FaultType:      envOrDefault("EVAL_FAULT_TYPE", "U"),
		StructureType:  envOrDefault("EVAL_STRUCTURE_TYPE", "Steel MRF"),
		BuildingHeight: buildingHeight,
		DefaultVS30:    defaultVS30,

		Vs30ServiceURL: vs30URL,
		Vs30Enabled:    vs30Enabled,
		Vs30Timeout:    vs30Timeout,
		Vs30CacheSize:  vs30CacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, fmt.Errorf("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, fmt.Errorf("KAFKA_SINK_TOPIC is required")
	}
	if cfg.Vs30Enabled && cfg.Vs30ServiceURL == "" {
		return nil, fmt.Errorf("VS30_ENABLED is true but VS30_SERVICE_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parsePositiveFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
