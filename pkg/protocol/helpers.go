package protocol

import (
	"errors"

	"github.com/teslashibe/go-gaze/pkg/gaze"
	"github.com/teslashibe/go-gaze/pkg/landmark"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewLandmarksMessage creates a landmarks message for one frame
func NewLandmarksMessage(frameID uint64, faces []landmark.Set) (*Message, error) {
	return NewMessage(TypeLandmarks, LandmarksData{
		FrameID: frameID,
		Faces:   faces,
	})
}

// NewCalibrateMessage creates a calibration command message
func NewCalibrateMessage(action string) (*Message, error) {
	return NewMessage(TypeCalibrate, CalibrateCommand{Action: action})
}

// NewGazeMessage creates a gaze message from a frame result
func NewGazeMessage(frameID uint64, r gaze.FrameResult) (*Message, error) {
	return NewMessage(TypeGaze, GazeData{
		FrameID:    frameID,
		Status:     string(r.Status),
		Horizontal: string(r.State.Horizontal),
		Vertical:   string(r.State.Vertical),
		AdjustedX:  r.State.AdjustedX,
		AdjustedY:  r.State.AdjustedY,
		SmoothedX:  r.Smoothed.X,
		SmoothedY:  r.Smoothed.Y,
		VelocityY:  r.Smoothed.VelocityY,
		Step:       r.Step.String(),
	})
}

// NewPromptMessage creates a calibration prompt message
func NewPromptMessage(p gaze.Prompt) (*Message, error) {
	data := PromptData{
		Step: p.Step.String(),
		Text: p.Text,
	}
	if p.Speech != "" {
		data.Speech = p.Speech
		data.Rate = gaze.SpeechRate
	}
	return NewMessage(TypePrompt, data)
}

// NewThresholdsMessage creates a thresholds message from a calibration result
func NewThresholdsMessage(r gaze.CalibrationResult) (*Message, error) {
	return NewMessage(TypeThresholds, ThresholdsData{
		SessionID: r.SessionID.String(),
		UpperY:    r.Thresholds.UpperY,
		LowerY:    r.Thresholds.LowerY,
		LeftX:     r.Thresholds.LeftX,
		RightX:    r.Thresholds.RightX,
		CenterY:   r.Means.CenterY,
		CenterX:   r.Means.CenterX,
	})
}

// NewCalibrationFailedMessage creates a failure message
func NewCalibrationFailedMessage(err error) (*Message, error) {
	data := CalibrationFailedData{Reason: err.Error()}
	var incomplete *gaze.IncompleteError
	if errors.As(err, &incomplete) {
		data.Pose = incomplete.Pose.String()
	}
	return NewMessage(TypeCalibrationFailed, data)
}

// NewErrorMessage creates an error message
func NewErrorMessage(msg string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: msg})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetLandmarksData extracts landmarks from a message
func (m *Message) GetLandmarksData() (*LandmarksData, error) {
	var data LandmarksData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCalibrateCommand extracts a calibration command from a message
func (m *Message) GetCalibrateCommand() (*CalibrateCommand, error) {
	var data CalibrateCommand
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetGazeData extracts gaze data from a message
func (m *Message) GetGazeData() (*GazeData, error) {
	var data GazeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPromptData extracts prompt data from a message
func (m *Message) GetPromptData() (*PromptData, error) {
	var data PromptData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetThresholdsData extracts thresholds from a message
func (m *Message) GetThresholdsData() (*ThresholdsData, error) {
	var data ThresholdsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
