// Package config provides environment-based configuration for the featurizer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the featurizer service.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Database
	DatabaseURL string

	// NATS (optional; empty disables the event bus)
	NatsURL string

	// Embeddings: absent API key means the deterministic fallback provider
	OpenAIAPIKey string
	OpenAIModel  string

	// Geocoding: absent API key means static table + regional default only
	GeocodingAPIKey string

	// Worker
	BatchSize        int
	PollInterval     time.Duration
	RetryBackoffBase time.Duration
	MaxRetries       int
	QueueRetention   time.Duration
	CleanupInterval  time.Duration

	// Rate limiting (enqueue endpoints)
	EnqueueRateLimit int
	RateWindow       time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	c := &Config{
		Port:             envInt("FEATURIZER_PORT", 8600),
		LogLevel:         envStr("FEATURIZER_LOG_LEVEL", "info"),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", ""),
		OpenAIAPIKey:     envStr("OPENAI_API_KEY", ""),
		OpenAIModel:      envStr("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		GeocodingAPIKey:  envStr("GEOCODING_API_KEY", ""),
		BatchSize:        envInt("WORKER_BATCH_SIZE", 5),
		PollInterval:     envDuration("WORKER_POLL_INTERVAL", 10*time.Second),
		RetryBackoffBase: envDuration("WORKER_RETRY_BACKOFF_BASE", 30*time.Second),
		MaxRetries:       envInt("WORKER_MAX_RETRIES", 3),
		QueueRetention:   envDuration("QUEUE_RETENTION", 7*24*time.Hour),
		CleanupInterval:  envDuration("QUEUE_CLEANUP_INTERVAL", time.Hour),
		EnqueueRateLimit: envInt("ENQUEUE_RATE_LIMIT", 60),
		RateWindow:       time.Minute,
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return c, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
