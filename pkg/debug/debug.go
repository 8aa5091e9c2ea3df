// Package debug provides global debug logging flags
package debug

import "log/slog"

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame gaze logs are shown.
// These are very verbose at camera rate; use --debug-frames to enable.
var Frames bool

// Log logs a message only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		slog.Debug(msg, args...)
	}
}

// FrameLog logs a message only if frame debug mode is enabled
func FrameLog(msg string, args ...any) {
	if Frames {
		slog.Info(msg, args...)
	}
}
