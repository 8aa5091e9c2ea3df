package gaze

import (
	"github.com/google/uuid"
)

// Step is a calibration state.
type Step int

const (
	StepIdle Step = iota
	StepLookUp
	StepLookCenterV
	StepLookDown
	StepLookLeft
	StepLookCenterH
	StepLookRight
	StepComplete
)

var stepNames = map[Step]string{
	StepIdle:        "idle",
	StepLookUp:      "look_up",
	StepLookCenterV: "look_center_v",
	StepLookDown:    "look_down",
	StepLookLeft:    "look_left",
	StepLookCenterH: "look_center_h",
	StepLookRight:   "look_right",
	StepComplete:    "complete",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the step by name.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// transitions is the fixed step order. Complete hands back to Idle, which is
// active tracking.
var transitions = map[Step]Step{
	StepIdle:        StepLookUp,
	StepLookUp:      StepLookCenterV,
	StepLookCenterV: StepLookDown,
	StepLookDown:    StepLookLeft,
	StepLookLeft:    StepLookCenterH,
	StepLookCenterH: StepLookRight,
	StepLookRight:   StepComplete,
	StepComplete:    StepIdle,
}

// Next returns the step that follows s.
func (s Step) Next() Step {
	return transitions[s]
}

// Pose returns the pose sampled during s, or false for Idle and Complete.
func (s Step) Pose() (Pose, bool) {
	switch s {
	case StepLookUp:
		return PoseUp, true
	case StepLookCenterV:
		return PoseCenterV, true
	case StepLookDown:
		return PoseDown, true
	case StepLookLeft:
		return PoseLeft, true
	case StepLookCenterH:
		return PoseCenterH, true
	case StepLookRight:
		return PoseRight, true
	}
	return 0, false
}

// Pose is one of the six calibration gaze targets.
type Pose int

const (
	PoseUp Pose = iota
	PoseCenterV
	PoseDown
	PoseLeft
	PoseCenterH
	PoseRight
)

// Poses lists all poses in session order.
var Poses = []Pose{PoseUp, PoseCenterV, PoseDown, PoseLeft, PoseCenterH, PoseRight}

func (p Pose) String() string {
	switch p {
	case PoseUp:
		return "up"
	case PoseCenterV:
		return "center (vertical)"
	case PoseDown:
		return "down"
	case PoseLeft:
		return "left"
	case PoseCenterH:
		return "center (horizontal)"
	case PoseRight:
		return "right"
	}
	return "unknown"
}

// Vertical reports whether the pose samples the vertical axis.
func (p Pose) Vertical() bool {
	return p == PoseUp || p == PoseCenterV || p == PoseDown
}

// value picks the axis-relevant smoothed scalar for the pose.
func (p Pose) value(s Smoothed) float64 {
	if p.Vertical() {
		return s.Y
	}
	return s.X
}

// Prompt is the human-readable instruction for a step, with a spoken variant.
type Prompt struct {
	Step   Step   `json:"step"`
	Text   string `json:"text"`
	Speech string `json:"speech,omitempty"`
}

// SpeechRate is the playback rate for spoken cues.
const SpeechRate = 0.7

var prompts = map[Step]Prompt{
	StepLookUp:      {Step: StepLookUp, Text: "Look UP and hold...", Speech: "Look up and hold."},
	StepLookCenterV: {Step: StepLookCenterV, Text: "Look CENTER (vertical) and hold...", Speech: "Look center and hold."},
	StepLookDown:    {Step: StepLookDown, Text: "Look DOWN and hold...", Speech: "Look down and hold."},
	StepLookLeft:    {Step: StepLookLeft, Text: "Look LEFT and hold...", Speech: "Look left and hold."},
	StepLookCenterH: {Step: StepLookCenterH, Text: "Look CENTER (horizontal) and hold...", Speech: "Look center and hold."},
	StepLookRight:   {Step: StepLookRight, Text: "Look RIGHT and hold...", Speech: "Look right and hold."},
	StepComplete:    {Step: StepComplete, Text: "Calibration complete!", Speech: "Calibration complete. Ready to track your eyes."},
}

// PromptFor returns the prompt shown when entering s.
func PromptFor(s Step) (Prompt, bool) {
	p, ok := prompts[s]
	return p, ok
}

// CueTexts returns every distinct spoken cue, in session order.
func CueTexts() []string {
	var texts []string
	seen := make(map[string]bool)
	for s := StepLookUp; s <= StepComplete; s++ {
		if t := prompts[s].Speech; t != "" && !seen[t] {
			seen[t] = true
			texts = append(texts, t)
		}
	}
	return append(texts, failurePrompt(nil).Speech)
}

func failurePrompt(err error) Prompt {
	p := Prompt{
		Step:   StepIdle,
		Text:   "Calibration failed. Please try again.",
		Speech: "Calibration failed. Please try again.",
	}
	if err != nil {
		p.Text = "Calibration failed: " + err.Error() + ". Please try again."
	}
	return p
}

func abortPrompt() Prompt {
	return Prompt{Step: StepIdle, Text: "Calibration cancelled."}
}

// Session collects smoothed samples per pose for one calibration run.
// A pose's collection is cleared when the pose is entered and frozen when
// it ends.
type Session struct {
	ID uuid.UUID

	samples map[Pose][]float64
	frozen  map[Pose]bool
	active  Pose
	running bool
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{
		ID:      uuid.New(),
		samples: make(map[Pose][]float64),
		frozen:  make(map[Pose]bool),
	}
}

// Enter freezes the active pose and starts collecting for p.
func (s *Session) Enter(p Pose) {
	s.Freeze()
	s.samples[p] = nil
	s.frozen[p] = false
	s.active = p
	s.running = true
}

// Append adds a sample to the active pose. It reports false when no pose is
// collecting.
func (s *Session) Append(v float64) bool {
	if !s.running || s.frozen[s.active] {
		return false
	}
	s.samples[s.active] = append(s.samples[s.active], v)
	return true
}

// Freeze stops collection for the active pose.
func (s *Session) Freeze() {
	if s.running {
		s.frozen[s.active] = true
		s.running = false
	}
}

// Samples returns a copy of the collection for p.
func (s *Session) Samples(p Pose) []float64 {
	out := make([]float64, len(s.samples[p]))
	copy(out, s.samples[p])
	return out
}

// Counts returns the number of samples per pose.
func (s *Session) Counts() map[Pose]int {
	counts := make(map[Pose]int, len(Poses))
	for _, p := range Poses {
		counts[p] = len(s.samples[p])
	}
	return counts
}

// PoseMeans are the per-pose averages of a finished session.
type PoseMeans struct {
	Up      float64 `json:"up"`
	CenterY float64 `json:"center_y"`
	Down    float64 `json:"down"`
	Left    float64 `json:"left"`
	CenterX float64 `json:"center_x"`
	Right   float64 `json:"right"`
}

// Means averages every pose. An empty pose yields an *IncompleteError.
func (s *Session) Means() (PoseMeans, error) {
	avg := make(map[Pose]float64, len(Poses))
	for _, p := range Poses {
		values := s.samples[p]
		if len(values) == 0 {
			return PoseMeans{}, &IncompleteError{Pose: p}
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		avg[p] = sum / float64(len(values))
	}
	return PoseMeans{
		Up:      avg[PoseUp],
		CenterY: avg[PoseCenterV],
		Down:    avg[PoseDown],
		Left:    avg[PoseLeft],
		CenterX: avg[PoseCenterH],
		Right:   avg[PoseRight],
	}, nil
}

// DeriveThresholds places each threshold midway between a pose mean and the
// matching centre mean.
func DeriveThresholds(m PoseMeans) Thresholds {
	return Thresholds{
		UpperY: (m.Up + m.CenterY) / 2,
		LowerY: (m.Down + m.CenterY) / 2,
		LeftX:  (m.Left + m.CenterX) / 2,
		RightX: (m.Right + m.CenterX) / 2,
	}
}
