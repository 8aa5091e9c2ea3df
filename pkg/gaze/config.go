package gaze

import (
	"log/slog"
	"time"
)

// Config holds all tunable parameters for gaze estimation
type Config struct {
	// Smoothing
	WindowSize int // Moving-average window length in frames

	// Sensitivity
	YGain float64 // Vertical gain (vertical iris travel is naturally smaller)
	XGain float64 // Horizontal gain

	// Calibration
	Dwell time.Duration // How long each calibration pose is held

	// MirroredInput is true when landmark x coordinates come from a mirrored
	// (selfie) frame. Labels are always from the subject's point of view.
	MirroredInput bool

	// Thresholds used before any calibration has completed
	DefaultThresholds Thresholds

	// Logging
	Logger *slog.Logger
}

// DefaultConfig returns the recommended configuration for a webcam at ~30 fps
func DefaultConfig() Config {
	return Config{
		WindowSize: 5, // ~170ms at 30 fps

		YGain: 1.8,
		XGain: 1.0,

		Dwell: 3 * time.Second,

		MirroredInput:     false,
		DefaultThresholds: DefaultThresholds(false),

		Logger: slog.Default(),
	}
}

// SensitiveConfig reacts faster and amplifies small eye movements
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.WindowSize = 3
	cfg.YGain = 2.2
	cfg.XGain = 1.2
	cfg.Dwell = 2 * time.Second
	return cfg
}

// StableConfig smooths harder and holds each calibration pose longer
func StableConfig() Config {
	cfg := DefaultConfig()
	cfg.WindowSize = 8
	cfg.Dwell = 4 * time.Second
	return cfg
}

// WithMirroredInput switches the horizontal convention and the matching
// default thresholds.
func (c Config) WithMirroredInput(mirrored bool) Config {
	c.MirroredInput = mirrored
	c.DefaultThresholds = DefaultThresholds(mirrored)
	return c
}

// logger returns the configured logger or the default one.
func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
