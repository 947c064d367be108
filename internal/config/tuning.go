package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/teslashibe/go-facecount/pkg/gesture"
)

// maxTuningFileSize bounds the tuning file read
const maxTuningFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds optional overrides for the gesture pipeline.
// Fields omitted from the JSON keep the value of the base config.
type TuningConfig struct {
	Preset *string `json:"preset,omitempty"` // "default", "sensitive", "strict"

	Alpha             *float64 `json:"alpha,omitempty"`
	WarmupFrames      *int     `json:"warmup_frames,omitempty"`
	BaselineRetention *float64 `json:"baseline_retention,omitempty"`

	EAROn         *float64 `json:"ear_on,omitempty"`
	EARHysteresis *float64 `json:"ear_hysteresis,omitempty"`

	MARDefault  *float64 `json:"mar_default,omitempty"`
	MARGain     *float64 `json:"mar_gain,omitempty"`
	MAROffRatio *float64 `json:"mar_off_ratio,omitempty"`

	BrowDefault  *float64 `json:"brow_default,omitempty"`
	BrowGain     *float64 `json:"brow_gain,omitempty"`
	BrowOffRatio *float64 `json:"brow_off_ratio,omitempty"`

	SensitivitySpan *float64 `json:"sensitivity_span,omitempty"`
	FrameThreshold  *int     `json:"frame_threshold,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxTuningFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxTuningFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// base returns the preset the overrides are applied on
func (c *TuningConfig) base() (gesture.Config, error) {
	if c.Preset == nil {
		return gesture.DefaultConfig(), nil
	}
	switch *c.Preset {
	case "", "default":
		return gesture.DefaultConfig(), nil
	case "sensitive":
		return gesture.SensitiveConfig(), nil
	case "strict":
		return gesture.StrictConfig(), nil
	default:
		return gesture.Config{}, fmt.Errorf("unknown preset %q", *c.Preset)
	}
}

// GestureConfig resolves the overrides into a validated pipeline config.
func (c *TuningConfig) GestureConfig() (gesture.Config, error) {
	cfg, err := c.base()
	if err != nil {
		return cfg, err
	}

	setFloat(&cfg.Alpha, c.Alpha)
	setInt(&cfg.WarmupFrames, c.WarmupFrames)
	setFloat(&cfg.BaselineRetention, c.BaselineRetention)
	setFloat(&cfg.EAROn, c.EAROn)
	setFloat(&cfg.EARHysteresis, c.EARHysteresis)
	setFloat(&cfg.MARDefault, c.MARDefault)
	setFloat(&cfg.MARGain, c.MARGain)
	setFloat(&cfg.MAROffRatio, c.MAROffRatio)
	setFloat(&cfg.BrowDefault, c.BrowDefault)
	setFloat(&cfg.BrowGain, c.BrowGain)
	setFloat(&cfg.BrowOffRatio, c.BrowOffRatio)
	setFloat(&cfg.SensitivitySpan, c.SensitivitySpan)
	setInt(&cfg.FrameThreshold, c.FrameThreshold)

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %v", errs)
	}
	return cfg, nil
}

// LoadGestureConfig returns the default pipeline config, or the one described
// by the tuning file at path when path is not empty.
func LoadGestureConfig(path string) (gesture.Config, error) {
	if path == "" {
		return gesture.DefaultConfig(), nil
	}
	tc, err := LoadTuningConfig(path)
	if err != nil {
		return gesture.Config{}, err
	}
	return tc.GestureConfig()
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
