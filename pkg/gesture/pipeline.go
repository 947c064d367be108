package gesture

import (
	"fmt"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
)

// Result is the outcome of processing one face frame
type Result struct {
	Smoothed   facemesh.Sample `json:"smoothed"`
	Thresholds Thresholds      `json:"thresholds"`
	Events     []Event         `json:"events,omitempty"`
	Counts     Counts          `json:"counts"`
	Warmup     int             `json:"warmup"` // Warm-up frames remaining
}

// Pipeline is the state of one camera session: smoothers, baseline and detectors.
// It is not safe for concurrent use; frames must be processed one at a time.
type Pipeline struct {
	config   Config
	ema      EMA
	smoothed Smoothed
	baseline Baseline
	detector *Detector
}

// NewPipeline creates a pipeline, rejecting invalid configurations
func NewPipeline(cfg Config) (*Pipeline, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid gesture config: %v", errs)
	}

	return &Pipeline{
		config:   cfg,
		ema:      EMA{Alpha: cfg.Alpha},
		baseline: NewBaseline(cfg.WarmupFrames, cfg.BaselineRetention),
		detector: NewDetector(cfg.FrameThreshold),
	}, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.config
}

// Process runs one face frame through smoothing, baseline learning,
// threshold derivation and event detection.
// Frames without a face must not be passed in; skipping them leaves all state unchanged.
func (p *Pipeline) Process(sample facemesh.Sample, sensitivity float64) Result {
	p.smoothed.EAR = p.ema.Update(p.smoothed.EAR, sample.EAR)
	p.smoothed.MAR = p.ema.Update(p.smoothed.MAR, sample.MAR)
	p.smoothed.BrowGap = p.ema.Update(p.smoothed.BrowGap, sample.BrowGap)
	s := p.smoothed.Sample()

	p.baseline.Observe(s.BrowGap, s.MAR)

	t := ComputeThresholds(p.config, p.baseline, sensitivity)
	events := p.detector.Step(s.EAR, s.MAR, s.BrowGap, t)

	return Result{
		Smoothed:   s,
		Thresholds: t,
		Events:     events,
		Counts:     p.detector.Counts(),
		Warmup:     p.baseline.Remaining(),
	}
}

// Smoothed returns the current smoothing state
func (p *Pipeline) Smoothed() Smoothed {
	return p.smoothed
}

// Baseline returns the current baseline state
func (p *Pipeline) Baseline() Baseline {
	return p.baseline
}

// Detector exposes the event detector for inspection
func (p *Pipeline) Detector() *Detector {
	return p.detector
}

// Counts returns the running gesture totals
func (p *Pipeline) Counts() Counts {
	return p.detector.Counts()
}

// Reset clears smoothing, baseline and detector state for a new session.
// Counts are display totals and survive a reset.
func (p *Pipeline) Reset() {
	p.smoothed = Smoothed{}
	p.baseline = NewBaseline(p.config.WarmupFrames, p.config.BaselineRetention)
	p.detector.Reset()
}

// ResetCounts zeroes the running totals
func (p *Pipeline) ResetCounts() {
	p.detector.ResetCounts()
}
