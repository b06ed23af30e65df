package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the marketplace matching
// engine.
type Config struct {
	Port     int
	LogLevel string

	// Operator settings consumed by the engine. MatchingEnabled and
	// AutoMatching are only the boot values; the admin surface can
	// change them at runtime.
	MatchingEnabled  bool
	AutoMatching     bool
	MatchingInterval time.Duration

	// ConfirmTimeout is how long a pending match waits for
	// confirmations before the sweep expires it.
	ConfirmTimeout time.Duration

	// Scoring parameters.
	ScoreWeightQuantity   float64
	ScoreWeightReputation float64
	ScoreWeightRecency    float64
	RecencyHorizon        time.Duration

	WebhookTimeout    time.Duration
	DispatchQueueSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies
// defaults, and validates values. It returns an error for any invalid
// value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	matchingEnabled, err := getBool("MATCHING_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCHING_ENABLED: %w", err)
	}

	autoMatching, err := getBool("AUTO_MATCHING", true)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTO_MATCHING: %w", err)
	}

	matchingInterval, err := getDuration("MATCHING_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCHING_INTERVAL: %w", err)
	}
	if matchingInterval < time.Second {
		return nil, fmt.Errorf("invalid MATCHING_INTERVAL: must be at least 1s")
	}

	confirmTimeout, err := getDuration("CONFIRM_TIMEOUT", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid CONFIRM_TIMEOUT: %w", err)
	}
	if confirmTimeout <= 0 {
		return nil, fmt.Errorf("invalid CONFIRM_TIMEOUT: must be positive")
	}

	wQuantity, err := getFloat("SCORE_WEIGHT_QUANTITY", 0.40)
	if err != nil {
		return nil, fmt.Errorf("invalid SCORE_WEIGHT_QUANTITY: %w", err)
	}
	wReputation, err := getFloat("SCORE_WEIGHT_REPUTATION", 0.40)
	if err != nil {
		return nil, fmt.Errorf("invalid SCORE_WEIGHT_REPUTATION: %w", err)
	}
	wRecency, err := getFloat("SCORE_WEIGHT_RECENCY", 0.20)
	if err != nil {
		return nil, fmt.Errorf("invalid SCORE_WEIGHT_RECENCY: %w", err)
	}
	if wQuantity < 0 || wReputation < 0 || wRecency < 0 {
		return nil, fmt.Errorf("score weights must be non-negative")
	}
	if wQuantity+wReputation+wRecency == 0 {
		return nil, fmt.Errorf("score weights must not all be zero")
	}

	recencyHorizon, err := getDuration("RECENCY_HORIZON", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid RECENCY_HORIZON: %w", err)
	}
	if recencyHorizon <= 0 {
		return nil, fmt.Errorf("invalid RECENCY_HORIZON: must be positive")
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	queueSize, err := getInt("DISPATCH_QUEUE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPATCH_QUEUE_SIZE: %w", err)
	}
	if queueSize < 1 {
		return nil, fmt.Errorf("invalid DISPATCH_QUEUE_SIZE: must be at least 1")
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:                  port,
		LogLevel:              logLevel,
		MatchingEnabled:       matchingEnabled,
		AutoMatching:          autoMatching,
		MatchingInterval:      matchingInterval,
		ConfirmTimeout:        confirmTimeout,
		ScoreWeightQuantity:   wQuantity,
		ScoreWeightReputation: wReputation,
		ScoreWeightRecency:    wRecency,
		RecencyHorizon:        recencyHorizon,
		WebhookTimeout:        webhookTimeout,
		DispatchQueueSize:     queueSize,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           idleTimeout,
		ShutdownTimeout:       shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
