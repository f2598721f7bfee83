// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Email           string
	Password        string
	APIBase         string
	PollInterval    time.Duration
	SnapshotTimeout time.Duration
	SnapshotDir     string
}

// Load reads configuration from environment variables and returns a
// validated Config. LOGICIRCLE_EMAIL and LOGICIRCLE_PASSWORD are
// required; without credentials no session can be established.
// Optional variables with defaults: LOGICIRCLE_API_BASE
// (https://video.logi.com), LOGICIRCLE_POLL_INTERVAL (30s),
// LOGICIRCLE_SNAPSHOT_TIMEOUT (10s), LOGICIRCLE_SNAPSHOT_DIR (snapshots).
func Load() (*Config, error) {
	email := os.Getenv("LOGICIRCLE_EMAIL")
	password := os.Getenv("LOGICIRCLE_PASSWORD")
	if email == "" || password == "" {
		return nil, fmt.Errorf("LOGICIRCLE_EMAIL and LOGICIRCLE_PASSWORD are required")
	}

	apiBase := "https://video.logi.com"
	if v, ok := os.LookupEnv("LOGICIRCLE_API_BASE"); ok && v != "" {
		apiBase = v
	}

	pollInterval := 30 * time.Second
	if v, ok := os.LookupEnv("LOGICIRCLE_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LOGICIRCLE_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		pollInterval = parsed
	}

	snapshotTimeout := 10 * time.Second
	if v, ok := os.LookupEnv("LOGICIRCLE_SNAPSHOT_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LOGICIRCLE_SNAPSHOT_TIMEOUT has invalid duration %q: %w", v, err)
		}
		snapshotTimeout = parsed
	}

	snapshotDir := "snapshots"
	if v, ok := os.LookupEnv("LOGICIRCLE_SNAPSHOT_DIR"); ok && v != "" {
		snapshotDir = v
	}

	return &Config{
		Email:           email,
		Password:        password,
		APIBase:         apiBase,
		PollInterval:    pollInterval,
		SnapshotTimeout: snapshotTimeout,
		SnapshotDir:     snapshotDir,
	}, nil
}
