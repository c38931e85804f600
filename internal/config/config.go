package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	EventsNone  = "none"
	EventsKafka = "kafka"
	EventsRedis = "redis"
)

const defaultDatabaseDSN = "host=localhost port=5432 dbname=wallet_ledger user=postgres password=postgres sslmode=disable"

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	StorageDriver string
	DatabaseDSN   string
	LockTimeout   time.Duration

	EventsDriver  string
	KafkaBrokers  []string
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from the environment. Callers that want a .env
// file should load it with godotenv first.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMemory)),
		DatabaseDSN:   getEnv("DATABASE_DSN", defaultDatabaseDSN),
		EventsDriver:  strings.ToLower(getEnv("EVENTS_DRIVER", EventsNone)),
		KafkaBrokers:  getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}

	var err error
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.LockTimeout, err = getEnvDuration("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	switch cfg.EventsDriver {
	case EventsNone, EventsKafka, EventsRedis:
	default:
		return Config{}, fmt.Errorf("unsupported EVENTS_DRIVER %q", cfg.EventsDriver)
	}

	if cfg.EventsDriver == EventsKafka && len(cfg.KafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required when EVENTS_DRIVER=kafka")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
