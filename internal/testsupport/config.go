// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"colorforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "masks")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Storage.Bucket = "test-bucket"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBatch overrides batch sizing on the test config.
func WithBatch(batchSize, maxParallel int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Batch.BatchSize = batchSize
		cfg.Batch.MaxParallel = maxParallel
	}
}
