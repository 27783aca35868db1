package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "http://localhost:8080"

[stream]
ws_url = "ws://localhost:8080/stream"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.StatusEveryMin != 5 {
		t.Errorf("status_every_min default = %d", cfg.App.StatusEveryMin)
	}
	if cfg.App.LogLevel != "info" {
		t.Errorf("log_level default = %q", cfg.App.LogLevel)
	}
	if cfg.Stream.HeartbeatSec != 25 || cfg.Stream.ReadTimeoutSec != 60 {
		t.Errorf("stream defaults = %+v", cfg.Stream)
	}
	if cfg.Engine.RefreshEverySec != 60 || cfg.Engine.PollEverySec != 5 {
		t.Errorf("engine defaults = %+v", cfg.Engine)
	}
	if cfg.Metrics.Listen != ":9109" {
		t.Errorf("metrics listen default = %q", cfg.Metrics.Listen)
	}
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "http://localhost:8080"

[stream]
ws_url = "ws://localhost:8080/stream"
heartbeat_s = 10

[engine]
poll_every_s = 2

[storage.sqlite]
enabled = true
path = "data/history.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stream.HeartbeatSec != 10 {
		t.Errorf("heartbeat_s = %d, want 10", cfg.Stream.HeartbeatSec)
	}
	if cfg.Engine.PollEverySec != 2 {
		t.Errorf("poll_every_s = %d, want 2", cfg.Engine.PollEverySec)
	}
	if !cfg.Storage.SQLite.Enabled || cfg.Storage.SQLite.Path != "data/history.db" {
		t.Errorf("sqlite config = %+v", cfg.Storage.SQLite)
	}
}

func TestLoadRejectsMissingEndpoints(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "http://localhost:8080"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("missing stream.ws_url must fail validation")
	}

	path = writeConfig(t, `
[stream]
ws_url = "ws://localhost:8080/stream"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("missing api.base_url must fail validation")
	}
}

func TestLoadRejectsEnabledBackendWithoutTarget(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "http://localhost:8080"

[stream]
ws_url = "ws://localhost:8080/stream"

[storage.postgres]
enabled = true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("enabled postgres without dsn must fail validation")
	}
}
