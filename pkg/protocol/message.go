// Package protocol defines the WebSocket message types exchanged between the
// browser landmark source and the gaze server.
package protocol

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-gaze/pkg/landmark"
)

// json is a drop-in encoding/json replacement; landmark frames are decoded
// at camera rate.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Server messages
	TypeLandmarks MessageType = "landmarks" // Detector output for one frame
	TypeCalibrate MessageType = "calibrate" // Start or abort calibration

	// Server → Client messages
	TypeGaze              MessageType = "gaze"               // Per-frame gaze result
	TypePrompt            MessageType = "prompt"             // Calibration instruction
	TypeThresholds        MessageType = "thresholds"         // New calibrated thresholds
	TypeCalibrationFailed MessageType = "calibration_failed" // Session failed or aborted
	TypeError             MessageType = "error"              // Malformed request

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType         `json:"type"`
	Timestamp int64               `json:"ts,omitempty"` // Unix milliseconds
	Data      jsoniter.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData jsoniter.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// LandmarksData is the detector output for one frame.
// Faces holds zero or more landmark sets; only the first is used.
// Width, Height and Image only feed the overlay view.
type LandmarksData struct {
	FrameID uint64         `json:"frame_id,omitempty"`
	Width   int            `json:"width,omitempty"`  // Source frame size in pixels
	Height  int            `json:"height,omitempty"` // Source frame size in pixels
	Faces   []landmark.Set `json:"faces"`
	Image   []byte         `json:"image,omitempty"` // Optional JPEG camera frame, base64 on the wire
}

// Calibration actions
const (
	ActionStart = "start"
	ActionAbort = "abort"
)

// CalibrateCommand starts or aborts calibration
type CalibrateCommand struct {
	Action string `json:"action"` // "start", "abort"
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// GazeData is the result of one frame pass
type GazeData struct {
	FrameID    uint64  `json:"frame_id,omitempty"`
	Status     string  `json:"status"` // tracked, calibrating, no_face, degenerate
	Horizontal string  `json:"horizontal"`
	Vertical   string  `json:"vertical"`
	AdjustedX  float64 `json:"adjusted_x"`
	AdjustedY  float64 `json:"adjusted_y"`
	SmoothedX  float64 `json:"smoothed_x"`
	SmoothedY  float64 `json:"smoothed_y"`
	VelocityY  float64 `json:"velocity_y"`
	Step       string  `json:"step"`
}

// PromptData is a calibration instruction for the UI
type PromptData struct {
	Step   string  `json:"step"`
	Text   string  `json:"text"`
	Speech string  `json:"speech,omitempty"`
	Rate   float64 `json:"rate,omitempty"` // Speech rate for browser synthesis
}

// ThresholdsData announces a completed calibration
type ThresholdsData struct {
	SessionID string  `json:"session_id,omitempty"`
	UpperY    float64 `json:"upper_y"`
	LowerY    float64 `json:"lower_y"`
	LeftX     float64 `json:"left_x"`
	RightX    float64 `json:"right_x"`
	CenterY   float64 `json:"center_y_avg,omitempty"`
	CenterX   float64 `json:"center_x_avg,omitempty"`
}

// CalibrationFailedData reports a failed or aborted session
type CalibrationFailedData struct {
	Reason string `json:"reason"`
	Pose   string `json:"pose,omitempty"` // Pose without samples, if any
}

// ErrorData reports a malformed client message
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
