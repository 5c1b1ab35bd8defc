package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Quiz.Category != nil || cfg.Log.Level != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[quiz]
category = "flags"
questions = 8
timer-seconds = 15
focus-missed = true
missed-factor = 1.5

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Quiz.Category == nil || *cfg.Quiz.Category != "flags" {
		t.Fatalf("unexpected category %v", cfg.Quiz.Category)
	}
	if cfg.Quiz.Questions == nil || *cfg.Quiz.Questions != 8 {
		t.Fatalf("unexpected questions %v", cfg.Quiz.Questions)
	}
	if cfg.Quiz.TimerSeconds == nil || *cfg.Quiz.TimerSeconds != 15 {
		t.Fatalf("unexpected timer %v", cfg.Quiz.TimerSeconds)
	}
	if cfg.Quiz.FocusMissed == nil || !*cfg.Quiz.FocusMissed {
		t.Fatalf("expected focus-missed")
	}
	if cfg.Quiz.MissedFactor == nil || *cfg.Quiz.MissedFactor != 1.5 {
		t.Fatalf("unexpected factor %v", cfg.Quiz.MissedFactor)
	}
	if cfg.Quiz.SourceURL != nil {
		t.Fatalf("expected unset source url")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level %v", cfg.Log.Level)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[quiz]\nwords = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "quiz.words") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "globequiz", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "globequiz", "globequiz.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "globequiz", "globequiz.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}
