package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-gaze/pkg/gaze"
)

func TestLoadGaze_Overrides(t *testing.T) {
	t.Setenv("GAZE_Y_GAIN", "2.5")
	t.Setenv("GAZE_X_GAIN", "1.2")
	t.Setenv("GAZE_WINDOW", "7")
	t.Setenv("GAZE_DWELL_MS", "2000")
	t.Setenv("GAZE_MIRRORED", "true")

	cfg, err := LoadGaze(gaze.DefaultConfig())
	if err != nil {
		t.Fatalf("LoadGaze() error = %v", err)
	}
	if cfg.YGain != 2.5 || cfg.XGain != 1.2 {
		t.Errorf("gains = %v/%v", cfg.YGain, cfg.XGain)
	}
	if cfg.WindowSize != 7 {
		t.Errorf("WindowSize = %v, want 7", cfg.WindowSize)
	}
	if cfg.Dwell != 2*time.Second {
		t.Errorf("Dwell = %v, want 2s", cfg.Dwell)
	}
	if !cfg.MirroredInput || cfg.DefaultThresholds.LeftX != 0.35 {
		t.Errorf("mirroring not applied: %+v", cfg.DefaultThresholds)
	}
}

func TestLoadGaze_InvalidKeepsBase(t *testing.T) {
	t.Setenv("GAZE_Y_GAIN", "fast")
	t.Setenv("GAZE_WINDOW", "0")
	t.Setenv("GAZE_DWELL_MS", "1500")

	base := gaze.DefaultConfig()
	cfg, err := LoadGaze(base)
	if err == nil {
		t.Fatal("expected error for malformed values")
	}
	if cfg.YGain != base.YGain || cfg.WindowSize != base.WindowSize {
		t.Errorf("invalid values leaked into config: %+v", cfg)
	}
	if cfg.Dwell != 1500*time.Millisecond {
		t.Errorf("valid value not applied: Dwell = %v", cfg.Dwell)
	}
}

func TestLoadServer_Defaults(t *testing.T) {
	t.Setenv("GAZE_PORT", "")
	t.Setenv("GAZE_LOG_LEVEL", "")

	s := LoadServer()
	if s.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", s.Port, DefaultPort)
	}
	if s.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", s.LogLevel, DefaultLogLevel)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GAZE_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GAZE_TEST_DOTENV", "")
	os.Unsetenv("GAZE_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("GAZE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("GAZE_TEST_DOTENV = %q", got)
	}

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}
