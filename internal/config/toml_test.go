package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing config must not be an error: %v", err)
	}
	if cfg.Tracker.DataDir != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[tracker]
data-dir = "/tmp/tempo-test"
autosave-seconds = 5
theme = "midnight"
record-history = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Tracker.DataDir == nil || *cfg.Tracker.DataDir != "/tmp/tempo-test" {
		t.Fatalf("data-dir not parsed: %+v", cfg.Tracker)
	}
	if cfg.Tracker.AutosaveSeconds == nil || *cfg.Tracker.AutosaveSeconds != 5 {
		t.Fatalf("autosave-seconds not parsed")
	}
	if cfg.Tracker.Theme == nil || *cfg.Tracker.Theme != "midnight" {
		t.Fatalf("theme not parsed")
	}
	if cfg.Tracker.RecordHistory == nil || *cfg.Tracker.RecordHistory {
		t.Fatalf("record-history not parsed")
	}
}

func TestLoadConfigBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tracker\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}
