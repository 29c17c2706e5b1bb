package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() succeeded with explicit missing file")
	}

	// No explicit path: missing file falls back to defaults. Run from a
	// directory with no scorepad.yaml.
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(t.TempDir())

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("SyncInterval = %v, want 30s", cfg.SyncInterval)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scorepad.yaml")
	content := `
server:
  url: https://scores.example.org/v2/
sync:
  interval: 5s
  max_retries: 5
judge:
  seat: seat-3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ServerURL != "https://scores.example.org/v2" {
		t.Errorf("ServerURL = %q, want trimmed URL", cfg.ServerURL)
	}
	if cfg.SyncInterval != 5*time.Second {
		t.Errorf("SyncInterval = %v, want 5s", cfg.SyncInterval)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.SeatID != "seat-3" {
		t.Errorf("SeatID = %q, want 'seat-3'", cfg.SeatID)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SCOREPAD_SERVER_URL", "https://env.example.org")

	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	os.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ServerURL != "https://env.example.org" {
		t.Errorf("ServerURL = %q, want env override", cfg.ServerURL)
	}
}

func TestLoad_RejectsBadInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scorepad.yaml")
	if err := os.WriteFile(path, []byte("sync:\n  interval: nonsense\n"), 0644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted a bad interval")
	}
}
