// Package gesture turns per-frame facial ratios into debounced gesture events.
//
// The pipeline is smoothing -> baseline learning (warm-up only) -> thresholds ->
// event detection. All state for one camera session lives in a Pipeline.
package gesture

import (
	"fmt"
	"math"
)

// Config holds all tunable parameters of the detection pipeline
type Config struct {
	// Smoothing
	Alpha float64 `json:"alpha"` // EMA weight of the new sample (0-1, exclusive)

	// Baseline learning
	WarmupFrames      int     `json:"warmup_frames"`      // Face frames used to learn the resting baseline
	BaselineRetention float64 `json:"baseline_retention"` // Weight kept from the previous baseline per frame

	// Sensitivity scaling
	NeutralSensitivity float64 `json:"neutral_sensitivity"` // Sensitivity that leaves thresholds untouched
	SensitivitySpan    float64 `json:"sensitivity_span"`    // Max relative threshold change at 0 or 100

	// Blink (fixed reference, hysteresis)
	EAROn         float64 `json:"ear_on"`         // Eyes count as closed below this
	EARHysteresis float64 `json:"ear_hysteresis"` // earOff = earOn + EARHysteresis

	// Mouth open (learned baseline, debounce)
	MARDefault  float64 `json:"mar_default"`   // Resting MAR before anything is learned
	MARGain     float64 `json:"mar_gain"`      // marOn = baseline * MARGain
	MAROffRatio float64 `json:"mar_off_ratio"` // marOff = marOn * MAROffRatio

	// Brow raise (learned baseline, debounce)
	BrowDefault  float64 `json:"brow_default"`
	BrowGain     float64 `json:"brow_gain"`
	BrowOffRatio float64 `json:"brow_off_ratio"`

	// Debounce
	FrameThreshold int `json:"frame_threshold"` // Consecutive frames above "on" needed for an event
}

// DefaultConfig returns the calibrated configuration
func DefaultConfig() Config {
	return Config{
		Alpha: 0.6, // 60% new, 40% history

		WarmupFrames:      50,
		BaselineRetention: 0.9, // 9:1 toward history

		NeutralSensitivity: 50,
		SensitivitySpan:    0.3, // ±30% at the ends of the range

		EAROn:         0.19,
		EARHysteresis: 0.04,

		MARDefault:  0.25,
		MARGain:     1.45,
		MAROffRatio: 0.8,

		BrowDefault:  0.55,
		BrowGain:     1.10,
		BrowOffRatio: 0.92,

		FrameThreshold: 3,
	}
}

// SensitiveConfig returns a configuration that triggers more easily, for users
// with subtle expressions or low-resolution cameras
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.EAROn = 0.21
	cfg.MARGain = 1.30
	cfg.BrowGain = 1.06
	cfg.FrameThreshold = 2
	return cfg
}

// StrictConfig returns a configuration that suppresses more false positives
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.Alpha = 0.45 // Heavier smoothing
	cfg.EAROn = 0.17
	cfg.MARGain = 1.60
	cfg.BrowGain = 1.15
	cfg.FrameThreshold = 4
	return cfg
}

// Validate returns a list of validation errors, empty if the config is usable.
func (c Config) Validate() []string {
	var errs []string

	if !(c.Alpha > 0 && c.Alpha < 1) {
		errs = append(errs, fmt.Sprintf("alpha must be in (0, 1), got %v", c.Alpha))
	}
	if c.WarmupFrames < 0 {
		errs = append(errs, fmt.Sprintf("warmup_frames must be >= 0, got %d", c.WarmupFrames))
	}
	if !(c.BaselineRetention > 0 && c.BaselineRetention < 1) {
		errs = append(errs, fmt.Sprintf("baseline_retention must be in (0, 1), got %v", c.BaselineRetention))
	}
	if c.NeutralSensitivity <= 0 || c.NeutralSensitivity >= MaxSensitivity {
		errs = append(errs, fmt.Sprintf("neutral_sensitivity must be in (0, %v), got %v", MaxSensitivity, c.NeutralSensitivity))
	}
	if c.SensitivitySpan < 0 || c.SensitivitySpan >= 1 {
		errs = append(errs, fmt.Sprintf("sensitivity_span must be in [0, 1), got %v", c.SensitivitySpan))
	}

	positive := []struct {
		name  string
		value float64
	}{
		{"ear_on", c.EAROn},
		{"ear_hysteresis", c.EARHysteresis},
		{"mar_default", c.MARDefault},
		{"mar_gain", c.MARGain},
		{"mar_off_ratio", c.MAROffRatio},
		{"brow_default", c.BrowDefault},
		{"brow_gain", c.BrowGain},
		{"brow_off_ratio", c.BrowOffRatio},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %v", p.name, p.value))
		}
	}

	if c.FrameThreshold < 1 {
		errs = append(errs, fmt.Sprintf("frame_threshold must be >= 1, got %d", c.FrameThreshold))
	}

	return errs
}
