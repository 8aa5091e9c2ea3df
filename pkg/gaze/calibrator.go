package gaze

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// wallClock schedules on the real clock.
type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock returns a Scheduler backed by time.AfterFunc.
func WallClock() Scheduler {
	return wallClock{}
}

// CalibrationResult is published when a session completes.
type CalibrationResult struct {
	SessionID  uuid.UUID  `json:"session_id"`
	Means      PoseMeans  `json:"means"`
	Thresholds Thresholds `json:"thresholds"`
}

// CalibrationStatus is a snapshot of the calibrator.
type CalibrationStatus struct {
	Step      Step           `json:"step"`
	Active    bool           `json:"active"`
	SessionID string         `json:"session_id,omitempty"`
	Samples   map[string]int `json:"samples,omitempty"`
	Dwell     time.Duration  `json:"dwell_ns"`
}

// Calibrator runs the guided six-pose calibration.
//
// Steps advance on the scheduler's wall-clock dwell timer, independent of
// frame rate. Frames only append samples. Only one session runs at a time.
type Calibrator struct {
	classifier *Classifier
	scheduler  Scheduler
	logger     *slog.Logger

	mu         sync.Mutex
	step       Step
	session    *Session
	timer      Timer
	generation uint64
	dwell      time.Duration

	// Callbacks, invoked without the lock held. Set before Start.
	OnPrompt   func(Prompt)
	OnComplete func(CalibrationResult)
	OnFailure  func(error)
}

// NewCalibrator creates a calibrator that publishes into classifier.
func NewCalibrator(config Config, classifier *Classifier, scheduler Scheduler) *Calibrator {
	if scheduler == nil {
		scheduler = WallClock()
	}
	return &Calibrator{
		classifier: classifier,
		scheduler:  scheduler,
		logger:     config.logger().With("component", "gaze.calibrator"),
		step:       StepIdle,
		dwell:      config.Dwell,
	}
}

// Start begins a session. A start while a session is running changes nothing
// and returns ErrCalibrationInProgress.
func (c *Calibrator) Start() (uuid.UUID, error) {
	c.mu.Lock()
	if c.step != StepIdle {
		step := c.step
		c.mu.Unlock()
		c.logger.Debug("calibration start ignored", "step", step)
		return uuid.Nil, ErrCalibrationInProgress
	}

	c.session = NewSession()
	c.generation++
	id := c.session.ID
	prompt := c.enter(StepIdle.Next())
	c.mu.Unlock()

	c.logger.Info("calibration started", "session", id, "dwell", c.Dwell())
	c.emitPrompt(prompt)
	return id, nil
}

// Abort cancels the running session. Thresholds are left untouched.
func (c *Calibrator) Abort() error {
	c.mu.Lock()
	if c.step == StepIdle {
		c.mu.Unlock()
		return ErrNotCalibrating
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
	id := c.session.ID
	c.session = nil
	c.step = StepIdle
	c.mu.Unlock()

	c.logger.Info("calibration aborted", "session", id)
	c.emitPrompt(abortPrompt())
	if c.OnFailure != nil {
		c.OnFailure(ErrCalibrationAborted)
	}
	return nil
}

// Observe feeds one smoothed frame. While a pose is active the axis-relevant
// value is appended to its collection. It reports whether a session is running,
// in which case the frame must not be classified.
func (c *Calibrator) Observe(s Smoothed) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step == StepIdle {
		return false
	}
	if pose, ok := c.step.Pose(); ok {
		c.session.Append(pose.value(s))
	}
	return true
}

// Active reports whether a session is running.
func (c *Calibrator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step != StepIdle
}

// Step returns the current step.
func (c *Calibrator) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Status returns a snapshot for display.
func (c *Calibrator) Status() CalibrationStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := CalibrationStatus{
		Step:   c.step,
		Active: c.step != StepIdle,
		Dwell:  c.dwell,
	}
	if c.session != nil {
		status.SessionID = c.session.ID.String()
		status.Samples = make(map[string]int, len(Poses))
		for pose, n := range c.session.Counts() {
			status.Samples[pose.String()] = n
		}
	}
	return status
}

// Samples returns a copy of the running session's collection for p.
func (c *Calibrator) Samples(p Pose) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.Samples(p)
}

// Dwell returns the per-pose dwell duration.
func (c *Calibrator) Dwell() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dwell
}

// SetDwell changes the dwell duration for steps entered from now on.
func (c *Calibrator) SetDwell(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.dwell = d
	c.mu.Unlock()
}

// enter moves to step and arms the dwell timer. Caller holds mu.
func (c *Calibrator) enter(step Step) Prompt {
	c.step = step
	if pose, ok := step.Pose(); ok {
		c.session.Enter(pose)
	}

	gen := c.generation
	c.timer = c.scheduler.AfterFunc(c.dwell, func() {
		c.advance(gen)
	})

	prompt, _ := PromptFor(step)
	return prompt
}

// advance is the dwell timer callback.
func (c *Calibrator) advance(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.step == StepIdle {
		// Stale timer from an aborted or finished session.
		c.mu.Unlock()
		return
	}

	next := c.step.Next()
	if next != StepComplete {
		prompt := c.enter(next)
		c.mu.Unlock()
		c.logger.Debug("calibration step", "step", next)
		c.emitPrompt(prompt)
		return
	}

	c.session.Freeze()
	c.step = StepComplete
	session := c.session
	c.timer = nil
	means, err := session.Means()

	var result CalibrationResult
	if err == nil {
		result = CalibrationResult{
			SessionID:  session.ID,
			Means:      means,
			Thresholds: DeriveThresholds(means),
		}
		c.classifier.SetThresholds(result.Thresholds)
	}

	c.step = StepComplete.Next()
	c.session = nil
	c.generation++
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("calibration incomplete",
			"session", session.ID,
			"error", err,
		)
		c.emitPrompt(failurePrompt(err))
		if c.OnFailure != nil {
			c.OnFailure(err)
		}
		return
	}

	t := result.Thresholds
	c.logger.Info("calibration complete",
		"session", session.ID,
		slog.Group("vertical", "upper_y", t.UpperY, "center_y_avg", means.CenterY, "lower_y", t.LowerY),
		slog.Group("horizontal", "left_x", t.LeftX, "center_x_avg", means.CenterX, "right_x", t.RightX),
	)

	prompt, _ := PromptFor(StepComplete)
	c.emitPrompt(prompt)
	if c.OnComplete != nil {
		c.OnComplete(result)
	}
}

func (c *Calibrator) emitPrompt(p Prompt) {
	if c.OnPrompt != nil && p.Text != "" {
		c.OnPrompt(p)
	}
}
