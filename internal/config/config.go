// Package config provides configuration helpers for go-gaze commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/teslashibe/go-gaze/pkg/gaze"
)

// Defaults.
const (
	DefaultPort     = "8090"
	DefaultLogLevel = "info"
)

// Server holds process-level settings read from the environment.
type Server struct {
	Port         string
	LogLevel     string
	LogFile      string
	OpenAIKey    string
	OverlayWidth int
}

// LoadDotEnv loads variables from the given files (".env" when none are
// named) without overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadServer reads server settings from the environment.
func LoadServer() Server {
	return Server{
		Port:         String("GAZE_PORT", DefaultPort),
		LogLevel:     String("GAZE_LOG_LEVEL", DefaultLogLevel),
		LogFile:      os.Getenv("GAZE_LOG_FILE"),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OverlayWidth: intOr("GAZE_OVERLAY_WIDTH", 640),
	}
}

// LoadGaze applies GAZE_* overrides on top of base. Malformed or
// non-positive values are reported and leave the base value in place.
func LoadGaze(base gaze.Config) (gaze.Config, error) {
	var errs []error

	if v, ok, err := floatEnv("GAZE_Y_GAIN"); err != nil {
		errs = append(errs, err)
	} else if ok {
		base.YGain = v
	}
	if v, ok, err := floatEnv("GAZE_X_GAIN"); err != nil {
		errs = append(errs, err)
	} else if ok {
		base.XGain = v
	}
	if v, ok, err := intEnv("GAZE_WINDOW"); err != nil {
		errs = append(errs, err)
	} else if ok {
		base.WindowSize = v
	}
	if v, ok, err := intEnv("GAZE_DWELL_MS"); err != nil {
		errs = append(errs, err)
	} else if ok {
		base.Dwell = time.Duration(v) * time.Millisecond
	}
	if s := os.Getenv("GAZE_MIRRORED"); s != "" {
		m, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("GAZE_MIRRORED: %w", err))
		} else {
			base = base.WithMirroredInput(m)
		}
	}

	return base, errors.Join(errs...)
}

// String returns the env var or def when unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	if v, ok, err := intEnv(key); err == nil && ok {
		return v
	}
	return def
}

func intEnv(key string) (int, bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return 0, false, fmt.Errorf("%s: must be positive, got %d", key, v)
	}
	return v, true, nil
}

func floatEnv(key string) (float64, bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	if v <= 0 {
		return 0, false, fmt.Errorf("%s: must be positive, got %v", key, v)
	}
	return v, true, nil
}
