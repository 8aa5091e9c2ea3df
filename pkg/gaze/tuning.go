package gaze

import "time"

// TuningParams holds the real-time adjustable gaze parameters.
// These can be modified via the tuning API without restarting the server.
type TuningParams struct {
	// Sensitivity
	YGain float64 `json:"y_gain" validate:"omitempty,gt=0,lte=5"` // Vertical gain
	XGain float64 `json:"x_gain" validate:"omitempty,gt=0,lte=5"` // Horizontal gain

	// Calibration
	DwellMs int `json:"dwell_ms" validate:"omitempty,min=500,max=10000"` // Per-pose dwell
}

// GetTuningParams returns the current tuning parameters.
func (p *Pipeline) GetTuningParams() TuningParams {
	g := p.classifier.Gains()
	return TuningParams{
		YGain:   g.Y,
		XGain:   g.X,
		DwellMs: int(p.calibrator.Dwell() / time.Millisecond),
	}
}

// SetTuningParams updates tuning parameters at runtime.
// Only non-zero values are applied. Concurrent updates to different fields
// do not overwrite each other.
func (p *Pipeline) SetTuningParams(params TuningParams) {
	p.tuneMu.Lock()
	defer p.tuneMu.Unlock()

	g := p.classifier.Gains()
	if params.YGain > 0 {
		g.Y = params.YGain
	}
	if params.XGain > 0 {
		g.X = params.XGain
	}
	p.classifier.SetGains(g)

	if params.DwellMs > 0 {
		p.calibrator.SetDwell(time.Duration(params.DwellMs) * time.Millisecond)
	}

	p.logger.Info("tuning updated", "y_gain", g.Y, "x_gain", g.X, "dwell", p.calibrator.Dwell())
}
