package gaze

import (
	"fmt"
	"sync/atomic"
)

// Label is a coarse gaze direction on one axis.
type Label string

const (
	LabelUp     Label = "Up"
	LabelDown   Label = "Down"
	LabelLeft   Label = "Left"
	LabelRight  Label = "Right"
	LabelCenter Label = "Center"

	// LabelPending is shown while calibrating and before the first frame.
	LabelPending Label = "..."
)

// State is the classified gaze for one frame.
type State struct {
	Horizontal Label `json:"horizontal"`
	Vertical   Label `json:"vertical"`

	// Gain-adjusted values the labels were bucketed from.
	AdjustedX float64 `json:"adjusted_x"`
	AdjustedY float64 `json:"adjusted_y"`
}

// PendingState is the neutral placeholder state.
func PendingState() State {
	return State{Horizontal: LabelPending, Vertical: LabelPending}
}

// String formats the state like the overlay caption.
func (s State) String() string {
	return fmt.Sprintf("%s / %s", s.Horizontal, s.Vertical)
}

// Thresholds partition the adjusted range into three buckets per axis.
//
// Vertically, values below UpperY are Up and above LowerY are Down. The
// horizontal bounds may be in either order: whichever of LeftX and RightX is
// smaller is the lower bound, so calibrated values work for mirrored and raw
// input alike.
type Thresholds struct {
	UpperY float64 `json:"upper_y"`
	LowerY float64 `json:"lower_y"`
	LeftX  float64 `json:"left_x"`
	RightX float64 `json:"right_x"`
}

// DefaultThresholds returns usable thresholds before calibration.
// In a raw camera frame the subject looking to their left moves the iris
// toward image-right, so Left is the high side unless the input is mirrored.
func DefaultThresholds(mirrored bool) Thresholds {
	t := Thresholds{UpperY: 0.42, LowerY: 0.58, LeftX: 0.65, RightX: 0.35}
	if mirrored {
		t.LeftX, t.RightX = t.RightX, t.LeftX
	}
	return t
}

// Vertical buckets an adjusted Y value. Comparisons are strict, so a value
// equal to a threshold is Center.
func (t Thresholds) Vertical(adjustedY float64) Label {
	switch {
	case adjustedY < t.UpperY:
		return LabelUp
	case adjustedY > t.LowerY:
		return LabelDown
	default:
		return LabelCenter
	}
}

// Horizontal buckets an adjusted X value with strict comparisons.
func (t Thresholds) Horizontal(adjustedX float64) Label {
	lo, hi := t.RightX, t.LeftX
	loLabel, hiLabel := LabelRight, LabelLeft
	if t.LeftX < t.RightX {
		lo, hi = t.LeftX, t.RightX
		loLabel, hiLabel = LabelLeft, LabelRight
	}

	switch {
	case adjustedX < lo:
		return loLabel
	case adjustedX > hi:
		return hiLabel
	default:
		return LabelCenter
	}
}

// Gains are the per-axis sensitivity multipliers.
type Gains struct {
	X float64 `json:"x_gain"`
	Y float64 `json:"y_gain"`
}

// Adjust applies the gain around the 0.5 midpoint.
func Adjust(v, gain float64) float64 {
	return (v-0.5)*gain + 0.5
}

// Classify is the pure classification of one smoothed sample.
func Classify(s Smoothed, t Thresholds, g Gains) State {
	ax := Adjust(s.X, g.X)
	ay := Adjust(s.Y, g.Y)
	return State{
		Horizontal: t.Horizontal(ax),
		Vertical:   t.Vertical(ay),
		AdjustedX:  ax,
		AdjustedY:  ay,
	}
}

// Classifier owns the current thresholds and gains.
// Both are replaced wholesale, so a reader never sees a partial update.
type Classifier struct {
	thresholds atomic.Pointer[Thresholds]
	gains      atomic.Pointer[Gains]
}

// NewClassifier creates a classifier from the configuration defaults.
func NewClassifier(config Config) *Classifier {
	c := &Classifier{}
	t := config.DefaultThresholds
	c.thresholds.Store(&t)
	c.gains.Store(&Gains{X: config.XGain, Y: config.YGain})
	return c
}

// Classify buckets a smoothed sample against the current thresholds.
func (c *Classifier) Classify(s Smoothed) State {
	return Classify(s, c.Thresholds(), c.Gains())
}

// Thresholds returns a snapshot of the current thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return *c.thresholds.Load()
}

// SetThresholds publishes a new threshold set atomically.
func (c *Classifier) SetThresholds(t Thresholds) {
	c.thresholds.Store(&t)
}

// Gains returns a snapshot of the current gains.
func (c *Classifier) Gains() Gains {
	return *c.gains.Load()
}

// SetGains publishes new gains atomically.
func (c *Classifier) SetGains(g Gains) {
	c.gains.Store(&g)
}
