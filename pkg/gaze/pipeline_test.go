package gaze

import (
	"sync"
	"testing"

	"github.com/teslashibe/go-gaze/pkg/landmark"
)

func newTestPipeline() (*Pipeline, *fakeScheduler) {
	sched := &fakeScheduler{}
	return New(DefaultConfig(), sched), sched
}

func TestPipeline_ConstantUpGaze(t *testing.T) {
	p, _ := newTestPipeline()

	var result FrameResult
	for i := 0; i < 10; i++ {
		result = p.ProcessFrame(faces(0.5, 0.3))
	}

	if result.Status != StatusTracked || !result.Updated() {
		t.Fatalf("status = %v, want tracked", result.Status)
	}
	if !approx(result.Smoothed.Y, 0.3) {
		t.Errorf("smoothed Y = %v, want 0.3", result.Smoothed.Y)
	}
	if !approx(result.State.AdjustedY, 0.14) {
		t.Errorf("adjusted Y = %v, want 0.14", result.State.AdjustedY)
	}
	if result.State.Vertical != LabelUp {
		t.Errorf("vertical = %v, want Up", result.State.Vertical)
	}
	if result.State.Horizontal != LabelCenter {
		t.Errorf("horizontal = %v, want Center", result.State.Horizontal)
	}
}

func TestPipeline_LookingLeftInRawFrame(t *testing.T) {
	p, _ := newTestPipeline()

	var result FrameResult
	for i := 0; i < 5; i++ {
		result = p.ProcessFrame(faces(0.8, 0.5))
	}
	if result.State.Horizontal != LabelLeft {
		t.Errorf("horizontal = %v, want Left", result.State.Horizontal)
	}
}

func TestPipeline_NoFaceHoldsState(t *testing.T) {
	p, _ := newTestPipeline()
	tracked := p.ProcessFrame(faces(0.5, 0.3))

	held := p.ProcessFrame(nil)
	if held.Status != StatusNoFace {
		t.Errorf("status = %v, want no_face", held.Status)
	}
	if held.Updated() {
		t.Error("no-face frame reported an update")
	}
	if held.State != tracked.State {
		t.Errorf("state = %+v, want held %+v", held.State, tracked.State)
	}
	if p.Last().State != tracked.State {
		t.Error("Last() changed on a skipped frame")
	}
}

func TestPipeline_InitialStateIsPending(t *testing.T) {
	p, _ := newTestPipeline()
	got := p.ProcessFrame([]landmark.Set{})
	if got.State != PendingState() {
		t.Errorf("state = %+v, want pending", got.State)
	}
}

func TestPipeline_DegenerateFrameDropped(t *testing.T) {
	p, _ := newTestPipeline()
	p.ProcessFrame(faces(0.5, 0.5))

	bad := makeFace(0.5, 0.5)
	bad[landmark.ImageLeftEyeBottom] = bad[landmark.ImageLeftEyeTop]
	got := p.ProcessFrame([]landmark.Set{bad})

	if got.Status != StatusDegenerate {
		t.Errorf("status = %v, want degenerate", got.Status)
	}
	if !finite(got.Smoothed.X) || !finite(got.Smoothed.Y) {
		t.Errorf("non-finite values leaked: %+v", got.Smoothed)
	}
	if n := p.smoother.WindowY().Len(); n != 1 {
		t.Errorf("window length = %d, degenerate frame should not be pushed", n)
	}
}

func TestPipeline_CalibratingHoldsPlaceholder(t *testing.T) {
	p, sched := newTestPipeline()
	if _, err := p.StartCalibration(); err != nil {
		t.Fatalf("StartCalibration() error: %v", err)
	}

	got := p.ProcessFrame(faces(0.5, 0.3))
	if got.Status != StatusCalibrating {
		t.Errorf("status = %v, want calibrating", got.Status)
	}
	if got.State != PendingState() {
		t.Errorf("state = %+v, want placeholder", got.State)
	}
	if got.Step != StepLookUp {
		t.Errorf("step = %v, want look_up", got.Step)
	}

	// Missing faces are not sampled.
	p.ProcessFrame(nil)
	p.ProcessFrame(nil)
	if n := len(p.Calibrator().Samples(PoseUp)); n != 1 {
		t.Errorf("up samples = %d, want 1", n)
	}

	if err := p.AbortCalibration(); err != nil {
		t.Fatalf("AbortCalibration() error: %v", err)
	}
	if sched.Live() != 0 {
		t.Error("abort left a timer armed")
	}
	if got := p.ProcessFrame(faces(0.5, 0.3)); got.Status != StatusTracked {
		t.Errorf("status after abort = %v, want tracked", got.Status)
	}
}

func TestPipeline_EndToEndCalibration(t *testing.T) {
	p, sched := newTestPipeline()
	p.StartCalibration()

	// up, center v, down, left, center h, right
	poses := [][2]float64{
		{0.5, 0.30}, {0.5, 0.50}, {0.5, 0.70},
		{0.8, 0.50}, {0.5, 0.50}, {0.2, 0.50},
	}
	for _, pose := range poses {
		for i := 0; i < 15; i++ {
			p.ProcessFrame(faces(pose[0], pose[1]))
		}
		sched.Fire()
	}

	if p.Calibrator().Active() {
		t.Fatal("calibration did not finish")
	}
	th := p.Thresholds()
	if th.UpperY >= 0.5 || th.LowerY <= 0.5 {
		t.Errorf("vertical thresholds %+v do not bracket centre", th)
	}
	if th.LeftX <= th.RightX {
		t.Errorf("left threshold %v should be above right %v for raw input", th.LeftX, th.RightX)
	}

	var result FrameResult
	for i := 0; i < 10; i++ {
		result = p.ProcessFrame(faces(0.9, 0.5))
	}
	if result.State.Horizontal != LabelLeft {
		t.Errorf("horizontal = %v, want Left", result.State.Horizontal)
	}
}

func TestPipeline_TuningParams(t *testing.T) {
	p, _ := newTestPipeline()

	p.SetTuningParams(TuningParams{YGain: 2.5, DwellMs: 1200})
	got := p.GetTuningParams()

	if got.YGain != 2.5 {
		t.Errorf("YGain = %v, want 2.5", got.YGain)
	}
	if got.XGain != 1.0 {
		t.Errorf("XGain = %v, want unchanged 1.0", got.XGain)
	}
	if got.DwellMs != 1200 {
		t.Errorf("DwellMs = %v, want 1200", got.DwellMs)
	}
}

func TestPipeline_ConcurrentTuningKeepsBothAxes(t *testing.T) {
	for round := 0; round < 50; round++ {
		p, _ := newTestPipeline()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.SetTuningParams(TuningParams{YGain: 2.0})
		}()
		go func() {
			defer wg.Done()
			p.SetTuningParams(TuningParams{XGain: 3.0})
		}()
		wg.Wait()

		if got := p.GetTuningParams(); got.YGain != 2.0 || got.XGain != 3.0 {
			t.Fatalf("round %d: gains = %+v, want y=2 x=3", round, got)
		}
	}
}

func TestPipeline_Reset(t *testing.T) {
	p, _ := newTestPipeline()
	p.ProcessFrame(faces(0.5, 0.3))
	p.Reset()

	if p.Last().State != PendingState() {
		t.Error("expected pending state after reset")
	}
	if p.smoother.WindowX().Len() != 0 {
		t.Error("expected empty window after reset")
	}
}
