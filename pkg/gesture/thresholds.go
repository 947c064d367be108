package gesture

import "math"

// MaxSensitivity is the top of the sensitivity range; 0 is the bottom
const MaxSensitivity = 100

// Thresholds are the per-frame on/off levels for each gesture.
// MAROff and BrowOff are reported but not used by the debounce detectors.
type Thresholds struct {
	EAROn   float64 `json:"ear_on"`
	EAROff  float64 `json:"ear_off"`
	MAROn   float64 `json:"mar_on"`
	MAROff  float64 `json:"mar_off"`
	BrowOn  float64 `json:"brow_on"`
	BrowOff float64 `json:"brow_off"`
}

// ClampSensitivity maps a raw control value into [0, MaxSensitivity].
// NaN reads as neutral.
func ClampSensitivity(pct, neutral float64) float64 {
	if math.IsNaN(pct) {
		return neutral
	}
	return clamp(pct, 0, MaxSensitivity)
}

// ScaleAround scales base by up to ±span around the neutral sensitivity.
// Lower sensitivity values lower the threshold, making gestures easier to trigger.
func ScaleAround(base, pct, neutral, span float64) float64 {
	return base * (1 + (pct-neutral)/neutral*span)
}

// ComputeThresholds derives all thresholds from the baseline and sensitivity.
// Unset baselines fall back to the configured defaults.
func ComputeThresholds(cfg Config, b Baseline, sensitivity float64) Thresholds {
	pct := ClampSensitivity(sensitivity, cfg.NeutralSensitivity)
	scale := func(base float64) float64 {
		return ScaleAround(base, pct, cfg.NeutralSensitivity, cfg.SensitivitySpan)
	}

	var t Thresholds
	t.EAROn = scale(cfg.EAROn)
	t.EAROff = t.EAROn + cfg.EARHysteresis
	t.MAROn = scale(b.MAR.Or(cfg.MARDefault) * cfg.MARGain)
	t.MAROff = t.MAROn * cfg.MAROffRatio
	t.BrowOn = scale(b.Brow.Or(cfg.BrowDefault) * cfg.BrowGain)
	t.BrowOff = t.BrowOn * cfg.BrowOffRatio
	return t
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
