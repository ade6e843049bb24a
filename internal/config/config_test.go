package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	os.Unsetenv("BACKEND_URL")
	t.Setenv("APP_CONFIG_FILE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected backend url %q", cfg.BackendURL)
	}
	if cfg.AgentPollInterval != 30*time.Second {
		t.Fatalf("expected 30s poll interval, got %s", cfg.AgentPollInterval)
	}
	if cfg.ReadRetries != 2 {
		t.Fatalf("expected 2 read retries, got %d", cfg.ReadRetries)
	}
	if !cfg.App.Agents.Enabled || cfg.App.Agents.ConfidenceThreshold != 0.6 {
		t.Fatalf("expected default app config, got %+v", cfg.App.Agents)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}
}

func TestLoadAppConfig_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	content := "agents:\n  timeout: 45s\n  confidence_threshold: 0.75\nui:\n  show_agent_status: false\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Agents.Timeout != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.Agents.Timeout)
	}
	if cfg.Agents.ConfidenceThreshold != 0.75 {
		t.Fatalf("expected 0.75, got %v", cfg.Agents.ConfidenceThreshold)
	}
	if cfg.UI.ShowAgentStatus {
		t.Fatalf("expected show_agent_status=false")
	}
	if !cfg.Agents.Enabled || cfg.Agents.RetryAttempts != 3 || !cfg.Features.DocumentSearch {
		t.Fatalf("expected untouched keys to keep defaults, got %+v", cfg)
	}
}

func TestLoadAppConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg != DefaultAppConfig() {
		t.Fatalf("expected defaults")
	}
}

func TestLoadAppConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("agents: [oops"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadAppConfig(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
