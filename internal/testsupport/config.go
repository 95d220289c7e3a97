package testsupport

import (
	"path/filepath"
	"testing"

	"doppel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HealthBind = "127.0.0.1:0"
	cfg.Storage.PublicBaseURL = "https://store.example"
	cfg.Storage.Bucket = "test-bucket"
	cfg.ElevenLabs.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithStageTimeout overrides the per-stage deadline on the test config.
func WithStageTimeout(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.StageTimeout = seconds
	}
}
