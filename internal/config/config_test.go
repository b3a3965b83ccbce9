package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "levelsave.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeConfig(t, `
[world]
type = "editor"
autosave_ticks = 5

[archive]
cook = true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Type != "editor" || cfg.World.AutosaveTicks != 5 {
		t.Fatalf("world section not applied: %+v", cfg.World)
	}
	if !cfg.Archive.Cook {
		t.Fatalf("archive.cook not applied")
	}
	if cfg.World.TickRate != 200*time.Millisecond {
		t.Fatalf("tick rate default lost: %v", cfg.World.TickRate)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("logging default lost: %q", cfg.Logging.Format)
	}
	if cfg.Server.StartTime == 0 {
		t.Fatalf("start time not stamped")
	}
}

func TestLoadRejectsNonPositiveAutosave(t *testing.T) {
	path := writeConfig(t, "[world]\nautosave_ticks = 0\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for autosave_ticks = 0")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
