package gaze

import (
	"errors"
	"fmt"
)

// Sentinel errors for per-frame and calibration conditions.
var (
	// ErrNoFace is returned when the detector reported no face this frame.
	ErrNoFace = errors.New("gaze: no face detected")

	// ErrDegenerateGeometry is returned when an eye's width or height collapses
	// to zero or the landmarks are not finite.
	ErrDegenerateGeometry = errors.New("gaze: degenerate eye geometry")

	// ErrCalibrationIncomplete is returned when a pose collected no samples.
	ErrCalibrationIncomplete = errors.New("gaze: calibration incomplete")

	// ErrCalibrationInProgress is returned when a start signal arrives while a
	// session is already running.
	ErrCalibrationInProgress = errors.New("gaze: calibration already in progress")

	// ErrCalibrationAborted is reported when a running session is cancelled.
	ErrCalibrationAborted = errors.New("gaze: calibration aborted")

	// ErrNotCalibrating is returned by Abort when no session is running.
	ErrNotCalibrating = errors.New("gaze: no calibration in progress")
)

// IncompleteError names the pose that ended without samples.
type IncompleteError struct {
	Pose Pose
}

// Error implements the error interface.
func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%v: no samples collected while looking %s", ErrCalibrationIncomplete, e.Pose)
}

// Unwrap returns ErrCalibrationIncomplete so errors.Is matches.
func (e *IncompleteError) Unwrap() error {
	return ErrCalibrationIncomplete
}
