package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"doppel/internal/config"
)

func validConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Storage.PublicBaseURL = "http://localhost:9000"
	cfg.ElevenLabs.APIKey = "test-key"
	return cfg
}

func TestDefaultValidatesWithRequiredFields(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateRequiresElevenLabsKey(t *testing.T) {
	cfg := validConfig(t)
	cfg.ElevenLabs.APIKey = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
	if !strings.Contains(err.Error(), "elevenlabs.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	cfg := validConfig(t)
	cfg.Queue.Transport = "kafka"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestValidatePubSubRequiresProject(t *testing.T) {
	cfg := validConfig(t)
	cfg.Queue.Transport = "pubsub"
	cfg.Queue.PubSubSubscription = "jobs-sub"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing pubsub project")
	}
	cfg.Queue.PubSubProject = "test-project"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := `
[paths]
workspace_dir = "` + filepath.Join(base, "ws") + `"
data_dir = "` + filepath.Join(base, "data") + `"
log_dir = "` + filepath.Join(base, "logs") + `"

[queue]
transport = "Redis"

[storage]
public_base_url = "http://store.example/"

[elevenlabs]
api_key = "k"
base_url = "https://api.elevenlabs.io/"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatalf("expected config to exist at %q", resolved)
	}
	if cfg.Queue.Transport != "redis" {
		t.Fatalf("expected normalized transport, got %q", cfg.Queue.Transport)
	}
	if strings.HasSuffix(cfg.Storage.PublicBaseURL, "/") {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Storage.PublicBaseURL)
	}
	if strings.HasSuffix(cfg.ElevenLabs.BaseURL, "/") {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.ElevenLabs.BaseURL)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.ElevenLabs.APIKey != "env-key" {
		t.Fatalf("expected env override, got %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.Queue.Name != "video-processing-queue" {
		t.Fatalf("unexpected default queue name %q", cfg.Queue.Name)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q", dir)
		}
	}
}
