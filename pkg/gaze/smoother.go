package gaze

// Window is a bounded FIFO of the most recent raw values for one axis.
// Its mean is the smoothed value.
type Window struct {
	values   []float64
	capacity int
}

// NewWindow creates a window holding at most capacity values.
// Capacities below 1 are raised to 1.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		values:   make([]float64, 0, capacity+1),
		capacity: capacity,
	}
}

// Push appends v, evicting the oldest value when the window is over capacity.
func (w *Window) Push(v float64) {
	w.values = append(w.values, v)
	if len(w.values) > w.capacity {
		copy(w.values, w.values[1:])
		w.values = w.values[:w.capacity]
	}
}

// Mean returns the arithmetic mean of the window contents, 0 when empty.
func (w *Window) Mean() float64 {
	if len(w.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range w.values {
		sum += v
	}
	return sum / float64(len(w.values))
}

// Len returns the number of values held.
func (w *Window) Len() int {
	return len(w.values)
}

// Cap returns the configured capacity.
func (w *Window) Cap() int {
	return w.capacity
}

// Values returns a copy of the contents, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.values))
	copy(out, w.values)
	return out
}

// Reset empties the window.
func (w *Window) Reset() {
	w.values = w.values[:0]
}

// Smoothed is the smoother output for one frame.
type Smoothed struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// VelocityY is the change of the smoothed Y since the previous valid frame.
	// It is 0 on the first frame, where HasVelocity is false.
	VelocityY   float64 `json:"velocity_y"`
	HasVelocity bool    `json:"has_velocity"`
}

// Smoother applies a moving average per axis and derives vertical velocity.
type Smoother struct {
	x, y *Window

	previousY float64
	hasPrev   bool
}

// NewSmoother creates a smoother with the given window size for both axes.
func NewSmoother(windowSize int) *Smoother {
	return &Smoother{
		x: NewWindow(windowSize),
		y: NewWindow(windowSize),
	}
}

// Update pushes one frame of raw ratios and returns the smoothed values.
func (s *Smoother) Update(raw Ratios) Smoothed {
	s.x.Push(raw.X)
	s.y.Push(raw.Y)

	out := Smoothed{X: s.x.Mean(), Y: s.y.Mean()}
	if s.hasPrev {
		out.VelocityY = out.Y - s.previousY
		out.HasVelocity = true
	}
	s.previousY = out.Y
	s.hasPrev = true
	return out
}

// WindowX returns the horizontal window.
func (s *Smoother) WindowX() *Window {
	return s.x
}

// WindowY returns the vertical window.
func (s *Smoother) WindowY() *Window {
	return s.y
}

// Reset clears both windows and the velocity history.
func (s *Smoother) Reset() {
	s.x.Reset()
	s.y.Reset()
	s.hasPrev = false
	s.previousY = 0
}
