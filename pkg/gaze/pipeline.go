// Package gaze estimates coarse gaze direction from facial landmarks.
//
// One Pipeline pass runs per frame: the Normalizer turns landmarks into raw
// iris ratios, the Smoother averages them over a short window, and then either
// the Calibrator samples them or the Classifier buckets them into a State.
//
//	p := gaze.New(gaze.DefaultConfig(), nil)
//	result := p.ProcessFrame(faces)
//	fmt.Println(result.State) // "Left / Center"
package gaze

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-gaze/pkg/landmark"
)

// FrameStatus describes what a frame pass did.
type FrameStatus string

const (
	StatusTracked     FrameStatus = "tracked"     // classified, State updated
	StatusCalibrating FrameStatus = "calibrating" // sampled by the calibrator
	StatusNoFace      FrameStatus = "no_face"     // skipped, State held
	StatusDegenerate  FrameStatus = "degenerate"  // dropped, State held
)

// FrameResult is the outcome of one pipeline pass.
type FrameResult struct {
	Status   FrameStatus `json:"status"`
	State    State       `json:"state"`
	Raw      Ratios      `json:"raw"`
	Smoothed Smoothed    `json:"smoothed"`
	Step     Step        `json:"step"`
}

// Updated reports whether the frame produced a new gaze state.
func (r FrameResult) Updated() bool {
	return r.Status == StatusTracked
}

// Pipeline is the per-session gaze context: it owns the smoothing windows,
// the calibrator and the current thresholds. Frames must be delivered one at
// a time; the dwell timer is the only other goroutine touching it.
type Pipeline struct {
	config Config
	logger *slog.Logger

	normalizer *Normalizer
	classifier *Classifier
	calibrator *Calibrator

	mu       sync.Mutex
	smoother *Smoother
	last     FrameResult

	// tuneMu serializes read-modify-write tuning updates.
	tuneMu sync.Mutex
}

// New creates a pipeline. A nil scheduler uses the wall clock.
func New(config Config, scheduler Scheduler) *Pipeline {
	logger := config.logger()
	classifier := NewClassifier(config)
	return &Pipeline{
		config:     config,
		logger:     logger.With("component", "gaze.pipeline"),
		normalizer: NewNormalizer(),
		classifier: classifier,
		calibrator: NewCalibrator(config, classifier, scheduler),
		smoother:   NewSmoother(config.WindowSize),
		last:       FrameResult{Status: StatusNoFace, State: PendingState()},
	}
}

// ProcessFrame runs one pass over the detector output for a frame.
// Only the first face is used. Frames without a usable face leave the
// previous State in place.
func (p *Pipeline) ProcessFrame(faces []landmark.Set) FrameResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := p.normalizer.Normalize(faces)
	if err != nil {
		status := StatusNoFace
		if errors.Is(err, ErrDegenerateGeometry) {
			status = StatusDegenerate
			p.logger.Debug("dropped frame", "error", err)
		}
		return p.hold(status)
	}

	smoothed := p.smoother.Update(raw)
	result := FrameResult{Raw: raw, Smoothed: smoothed}

	if p.calibrator.Observe(smoothed) {
		result.Status = StatusCalibrating
		result.State = PendingState()
		result.Step = p.calibrator.Step()
	} else {
		result.Status = StatusTracked
		result.State = p.classifier.Classify(smoothed)
		result.Step = StepIdle
	}

	p.last = result
	return result
}

// hold returns the previous result with a new status. Caller holds mu.
func (p *Pipeline) hold(status FrameStatus) FrameResult {
	held := p.last
	held.Status = status
	held.Step = p.calibrator.Step()
	if held.Step != StepIdle {
		held.State = PendingState()
	}
	return held
}

// Last returns the most recent frame result.
func (p *Pipeline) Last() FrameResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// StartCalibration begins a calibration session.
func (p *Pipeline) StartCalibration() (string, error) {
	id, err := p.calibrator.Start()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// AbortCalibration cancels the running session.
func (p *Pipeline) AbortCalibration() error {
	return p.calibrator.Abort()
}

// Calibrator returns the calibration controller.
func (p *Pipeline) Calibrator() *Calibrator {
	return p.calibrator
}

// Classifier returns the classifier.
func (p *Pipeline) Classifier() *Classifier {
	return p.classifier
}

// Thresholds returns the current threshold set.
func (p *Pipeline) Thresholds() Thresholds {
	return p.classifier.Thresholds()
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config {
	return p.config
}

// Reset clears the smoothing history, e.g. when the frame source restarts.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.smoother.Reset()
	p.last = FrameResult{Status: StatusNoFace, State: PendingState()}
}
