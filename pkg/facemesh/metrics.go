package facemesh

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// gapEpsilon keeps the brow gap finite when an eye collapses to zero width
const gapEpsilon = 1e-6

var (
	// ErrTooFewLandmarks is returned when a landmark set is smaller than the index tables need.
	ErrTooFewLandmarks = errors.New("too few landmarks")

	// ErrDegenerateGeometry is returned when a ratio is not finite, e.g. a zero-width eye or mouth.
	ErrDegenerateGeometry = errors.New("degenerate face geometry")
)

// Distance returns the Euclidean distance between two points
func Distance(a, b Point) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}

// EyeAspectRatio returns (|p2-p6| + |p3-p5|) / (2 |p1-p4|) for one eye.
// The width is not guarded; a zero-width eye yields +Inf or NaN.
func EyeAspectRatio(eye EyeDescriptor, lm Landmarks) float64 {
	vertical := Distance(lm[eye.Upper1], lm[eye.Lower1]) + Distance(lm[eye.Upper2], lm[eye.Lower2])
	return vertical / (2 * Distance(lm[eye.Outer], lm[eye.Inner]))
}

// EyeWidth returns the corner-to-corner distance of one eye
func EyeWidth(eye EyeDescriptor, lm Landmarks) float64 {
	return Distance(lm[eye.Outer], lm[eye.Inner])
}

// MouthAspectRatio returns inner-lip opening over corner-to-corner width.
// The width is not guarded.
func MouthAspectRatio(lm Landmarks) float64 {
	opening := Distance(lm[MouthTopInner], lm[MouthBottomInner])
	return opening / Distance(lm[MouthLeftCorner], lm[MouthRightCorner])
}

// meanY averages the Y coordinate of the indexed points
func meanY(lm Landmarks, idxs []int) float64 {
	ys := make([]float64, len(idxs))
	for i, idx := range idxs {
		ys[i] = lm[idx].Y
	}
	return stat.Mean(ys, nil)
}

// sideGap is the vertical brow to upper-lid distance of one side over its eye width
func sideGap(lm Landmarks, brow, eyeTop []int, eye EyeDescriptor) float64 {
	return math.Abs(meanY(lm, brow)-meanY(lm, eyeTop)) / (EyeWidth(eye, lm) + gapEpsilon)
}

// BrowEyeGap returns the normalized brow to eyelid gap averaged over both sides
func BrowEyeGap(lm Landmarks) float64 {
	left := sideGap(lm, LeftBrowPoints, LeftEyeTopPoints, LeftEye)
	right := sideGap(lm, RightBrowPoints, RightEyeTopPoints, RightEye)
	return (left + right) / 2
}

// Measure computes all ratios for one frame.
func Measure(lm Landmarks) (Sample, error) {
	if len(lm) < MinLandmarks {
		return Sample{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewLandmarks, len(lm), MinLandmarks)
	}

	s := Sample{
		EAR:     (EyeAspectRatio(LeftEye, lm) + EyeAspectRatio(RightEye, lm)) / 2,
		MAR:     MouthAspectRatio(lm),
		BrowGap: BrowEyeGap(lm),
	}

	for name, v := range map[string]float64{"ear": s.EAR, "mar": s.MAR, "brow_gap": s.BrowGap} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, fmt.Errorf("%w: %s=%v", ErrDegenerateGeometry, name, v)
		}
	}

	return s, nil
}
