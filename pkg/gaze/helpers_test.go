package gaze

import (
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-gaze/pkg/landmark"
)

const epsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// fakeScheduler queues timers and fires them on demand.
type fakeScheduler struct {
	mu      sync.Mutex
	pending []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Fire runs the oldest live timer and reports whether one existed.
func (s *fakeScheduler) Fire() bool {
	s.mu.Lock()
	var next *fakeTimer
	for _, t := range s.pending {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

// FireStale runs a timer even if it was stopped, simulating a Stop race.
func (s *fakeScheduler) FireStale(i int) {
	s.mu.Lock()
	t := s.pending[i]
	s.mu.Unlock()
	t.f()
}

func (s *fakeScheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Eye geometry used by makeFace: both eyes 0.1 wide and 0.04 tall.
const (
	eyeWidth  = 0.10
	eyeHeight = 0.04
)

// makeFace builds a refined FaceMesh set whose eyes both have the given
// horizontal and vertical iris ratios.
func makeFace(rx, ry float64) landmark.Set {
	face := make(landmark.Set, landmark.NumRefined)
	place := func(eye landmark.EyeIndices, startX float64) {
		top := 0.40
		face[eye.Start] = landmark.Point{X: startX, Y: top + eyeHeight/2}
		face[eye.End] = landmark.Point{X: startX + eyeWidth, Y: top + eyeHeight/2}
		face[eye.LidTop] = landmark.Point{X: startX + eyeWidth/2, Y: top}
		face[eye.LidBottom] = landmark.Point{X: startX + eyeWidth/2, Y: top + eyeHeight}
		face[eye.Iris] = landmark.Point{X: startX + rx*eyeWidth, Y: top + ry*eyeHeight}
	}
	place(landmark.ImageLeftEye, 0.30)
	place(landmark.ImageRightEye, 0.60)
	return face
}

func faces(rx, ry float64) []landmark.Set {
	return []landmark.Set{makeFace(rx, ry)}
}
