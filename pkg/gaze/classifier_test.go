package gaze

import (
	"sync"
	"testing"
)

func TestThresholds_Vertical(t *testing.T) {
	th := Thresholds{UpperY: 0.42, LowerY: 0.58}

	tests := []struct {
		name string
		y    float64
		want Label
	}{
		{"well above", 0.10, LabelUp},
		{"just above upper", 0.4199, LabelUp},
		{"exactly upper is center", 0.42, LabelCenter},
		{"middle", 0.50, LabelCenter},
		{"exactly lower is center", 0.58, LabelCenter},
		{"just below lower", 0.5801, LabelDown},
		{"well below", 0.95, LabelDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Vertical(tt.y); got != tt.want {
				t.Errorf("Vertical(%v) = %v, want %v", tt.y, got, tt.want)
			}
		})
	}
}

func TestThresholds_Horizontal(t *testing.T) {
	tests := []struct {
		name string
		th   Thresholds
		x    float64
		want Label
	}{
		// Raw camera frames: looking left moves the iris to image-right.
		{"raw: low x is right", DefaultThresholds(false), 0.2, LabelRight},
		{"raw: high x is left", DefaultThresholds(false), 0.8, LabelLeft},
		{"raw: middle", DefaultThresholds(false), 0.5, LabelCenter},
		{"raw: exactly right bound", DefaultThresholds(false), 0.35, LabelCenter},
		{"raw: exactly left bound", DefaultThresholds(false), 0.65, LabelCenter},

		{"mirrored: low x is left", DefaultThresholds(true), 0.2, LabelLeft},
		{"mirrored: high x is right", DefaultThresholds(true), 0.8, LabelRight},
		{"mirrored: exactly left bound", DefaultThresholds(true), 0.35, LabelCenter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.th.Horizontal(tt.x); got != tt.want {
				t.Errorf("Horizontal(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		v, gain, want float64
	}{
		{0.5, 1.8, 0.5},
		{0.3, 1.8, 0.14},
		{0.7, 1.8, 0.86},
		{0.3, 1.0, 0.3},
	}
	for _, tt := range tests {
		if got := Adjust(tt.v, tt.gain); !approx(got, tt.want) {
			t.Errorf("Adjust(%v, %v) = %v, want %v", tt.v, tt.gain, got, tt.want)
		}
	}
}

func TestClassify_UpWithDefaultGain(t *testing.T) {
	cfg := DefaultConfig()
	c := NewClassifier(cfg)

	// Window filled with 0.3: adjustedY = (0.3-0.5)*1.8+0.5 = 0.14 < 0.42
	got := c.Classify(Smoothed{X: 0.5, Y: 0.3})
	if got.Vertical != LabelUp {
		t.Errorf("Vertical = %v, want Up", got.Vertical)
	}
	if !approx(got.AdjustedY, 0.14) {
		t.Errorf("AdjustedY = %v, want 0.14", got.AdjustedY)
	}
	if got.Horizontal != LabelCenter {
		t.Errorf("Horizontal = %v, want Center", got.Horizontal)
	}
}

func TestClassify_BoundaryAfterGain(t *testing.T) {
	// Pick smoothed Y so adjustedY lands exactly on UpperY.
	th := Thresholds{UpperY: 0.5, LowerY: 0.6, LeftX: 0.3, RightX: 0.7}
	got := Classify(Smoothed{X: 0.5, Y: 0.5}, th, Gains{X: 1, Y: 1.8})
	if got.AdjustedY != th.UpperY {
		t.Fatalf("AdjustedY = %v, want %v", got.AdjustedY, th.UpperY)
	}
	if got.Vertical != LabelCenter {
		t.Errorf("adjustedY == UpperY classified %v, want Center", got.Vertical)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	th := DefaultThresholds(false)
	g := Gains{X: 1.0, Y: 1.8}
	samples := []Smoothed{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}, {X: 0.9, Y: 0.7}}

	for _, s := range samples {
		first := Classify(s, th, g)
		for i := 0; i < 5; i++ {
			if again := Classify(s, th, g); again != first {
				t.Fatalf("Classify(%+v) changed: %+v then %+v", s, first, again)
			}
		}
	}
}

func TestClassifier_SetThresholdsIsAtomic(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	a := Thresholds{UpperY: 0.1, LowerY: 0.2, LeftX: 0.3, RightX: 0.4}
	b := Thresholds{UpperY: 0.5, LowerY: 0.6, LeftX: 0.7, RightX: 0.8}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				c.SetThresholds(a)
			} else {
				c.SetThresholds(b)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		got := c.Thresholds()
		if got != a && got != b && got != DefaultThresholds(false) {
			t.Fatalf("observed torn threshold set %+v", got)
		}
	}
	wg.Wait()
}

func TestState_String(t *testing.T) {
	s := State{Horizontal: LabelLeft, Vertical: LabelDown}
	if s.String() != "Left / Down" {
		t.Errorf("got %q", s.String())
	}
	if PendingState().String() != "... / ..." {
		t.Errorf("got %q", PendingState().String())
	}
}
