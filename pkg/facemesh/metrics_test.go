package facemesh

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-9

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want float64
	}{
		{"same point", Point{0.5, 0.5}, Point{0.5, 0.5}, 0},
		{"horizontal", Point{0.1, 0.2}, Point{0.4, 0.2}, 0.3},
		{"3-4-5", Point{0, 0}, Point{0.3, 0.4}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > tolerance {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEyeAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		ear  float64
	}{
		{"open", 0.30},
		{"half closed", 0.15},
		{"closed", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := Synthetic(tt.ear, 0.25, 0.55)
			for _, eye := range []EyeDescriptor{LeftEye, RightEye} {
				got := EyeAspectRatio(eye, lm)
				if got < 0 {
					t.Fatalf("EAR must be non-negative, got %v", got)
				}
				if math.Abs(got-tt.ear) > tolerance {
					t.Errorf("EAR = %v, want %v", got, tt.ear)
				}
			}
		})
	}
}

func TestEyeAspectRatio_ZeroOnlyWhenLidsTouch(t *testing.T) {
	lm := Synthetic(0, 0.25, 0.55)
	if got := EyeAspectRatio(LeftEye, lm); got != 0 {
		t.Fatalf("EAR with touching lids = %v, want 0", got)
	}

	// One pair of lid points apart is enough for a positive ratio
	lm[LeftEye.Lower1].Y += 0.01
	if got := EyeAspectRatio(LeftEye, lm); got <= 0 {
		t.Errorf("EAR with one open pair = %v, want > 0", got)
	}
}

func TestMouthAspectRatio(t *testing.T) {
	for _, mar := range []float64{0, 0.25, 0.6} {
		lm := Synthetic(0.3, mar, 0.55)
		if got := MouthAspectRatio(lm); math.Abs(got-mar) > tolerance {
			t.Errorf("MAR = %v, want %v", got, mar)
		}
	}
}

func TestBrowEyeGap(t *testing.T) {
	for _, gap := range []float64{0.3, 0.55, 0.8} {
		lm := Synthetic(0.3, 0.25, gap)
		if got := BrowEyeGap(lm); math.Abs(got-gap) > 1e-6 {
			t.Errorf("BrowEyeGap = %v, want %v", got, gap)
		}
	}
}

func TestBrowEyeGap_ZeroWidthEyeStaysFinite(t *testing.T) {
	lm := Synthetic(0.3, 0.25, 0.55)
	lm[LeftEye.Inner] = lm[LeftEye.Outer]
	lm[RightEye.Inner] = lm[RightEye.Outer]

	got := BrowEyeGap(lm)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("BrowEyeGap should stay finite, got %v", got)
	}
}

func TestMeasure(t *testing.T) {
	s, err := Measure(Synthetic(0.28, 0.3, 0.6))
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if math.Abs(s.EAR-0.28) > tolerance || math.Abs(s.MAR-0.3) > tolerance || math.Abs(s.BrowGap-0.6) > 1e-6 {
		t.Errorf("Measure() = %+v", s)
	}
}

func TestMeasure_Errors(t *testing.T) {
	t.Run("too few landmarks", func(t *testing.T) {
		_, err := Measure(make(Landmarks, 10))
		if !errors.Is(err, ErrTooFewLandmarks) {
			t.Errorf("error = %v, want ErrTooFewLandmarks", err)
		}
	})

	t.Run("zero-width mouth", func(t *testing.T) {
		lm := Synthetic(0.3, 0.25, 0.55)
		lm[MouthRightCorner] = lm[MouthLeftCorner]
		_, err := Measure(lm)
		if !errors.Is(err, ErrDegenerateGeometry) {
			t.Errorf("error = %v, want ErrDegenerateGeometry", err)
		}
	})

	t.Run("collapsed eye", func(t *testing.T) {
		lm := make(Landmarks, MinLandmarks)
		_, err := Measure(lm)
		if !errors.Is(err, ErrDegenerateGeometry) {
			t.Errorf("error = %v, want ErrDegenerateGeometry", err)
		}
	})
}

func TestMirror(t *testing.T) {
	lm := Landmarks{{X: 0.25, Y: 0.3}, {X: 1, Y: 0}}
	got := lm.Mirror()

	if got[0] != (Point{X: 0.75, Y: 0.3}) || got[1] != (Point{X: 0, Y: 0}) {
		t.Errorf("Mirror() = %v", got)
	}
	if lm[0].X != 0.25 {
		t.Error("Mirror() must not modify the input")
	}
}

func TestDefaultInferenceOptions(t *testing.T) {
	opts := DefaultInferenceOptions()

	if opts.MaxNumFaces != 1 {
		t.Errorf("MaxNumFaces = %d, want 1", opts.MaxNumFaces)
	}
	if !opts.RefineLandmarks {
		t.Error("RefineLandmarks should be enabled")
	}
	if opts.MinDetectionConfidence != 0.6 || opts.MinTrackingConfidence != 0.6 {
		t.Errorf("confidences = %v/%v, want 0.6/0.6", opts.MinDetectionConfidence, opts.MinTrackingConfidence)
	}
}
