package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %s", cfg.LogLevel)
	}
	if !cfg.MatchingEnabled || !cfg.AutoMatching {
		t.Error("expected matching and auto-matching enabled by default")
	}
	if cfg.MatchingInterval != 30*time.Second {
		t.Errorf("expected 30s interval, got %s", cfg.MatchingInterval)
	}
	if cfg.ConfirmTimeout != 24*time.Hour {
		t.Errorf("expected 24h confirm timeout, got %s", cfg.ConfirmTimeout)
	}
	if cfg.ScoreWeightQuantity != 0.40 || cfg.ScoreWeightReputation != 0.40 || cfg.ScoreWeightRecency != 0.20 {
		t.Errorf("unexpected default weights %v/%v/%v",
			cfg.ScoreWeightQuantity, cfg.ScoreWeightReputation, cfg.ScoreWeightRecency)
	}
	if cfg.RecencyHorizon != 7*24*time.Hour {
		t.Errorf("expected 7d recency horizon, got %s", cfg.RecencyHorizon)
	}
	if cfg.DispatchQueueSize != 256 {
		t.Errorf("expected queue size 256, got %d", cfg.DispatchQueueSize)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTO_MATCHING", "false")
	t.Setenv("MATCHING_INTERVAL", "5s")
	t.Setenv("CONFIRM_TIMEOUT", "1h")
	t.Setenv("SCORE_WEIGHT_RECENCY", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 || cfg.LogLevel != "debug" {
		t.Errorf("unexpected overrides: port=%d level=%s", cfg.Port, cfg.LogLevel)
	}
	if cfg.AutoMatching {
		t.Error("expected auto-matching disabled")
	}
	if cfg.MatchingInterval != 5*time.Second || cfg.ConfirmTimeout != time.Hour {
		t.Errorf("unexpected durations: %s / %s", cfg.MatchingInterval, cfg.ConfirmTimeout)
	}
	if cfg.ScoreWeightRecency != 0.5 {
		t.Errorf("expected recency weight 0.5, got %v", cfg.ScoreWeightRecency)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-number"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad bool", "MATCHING_ENABLED", "maybe"},
		{"interval too short", "MATCHING_INTERVAL", "100ms"},
		{"negative confirm timeout", "CONFIRM_TIMEOUT", "-1h"},
		{"negative weight", "SCORE_WEIGHT_QUANTITY", "-0.1"},
		{"zero horizon", "RECENCY_HORIZON", "0s"},
		{"zero queue", "DISPATCH_QUEUE_SIZE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_AllZeroWeights(t *testing.T) {
	t.Setenv("SCORE_WEIGHT_QUANTITY", "0")
	t.Setenv("SCORE_WEIGHT_REPUTATION", "0")
	t.Setenv("SCORE_WEIGHT_RECENCY", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error when all weights are zero")
	}
}
