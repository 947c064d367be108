// Package facemesh describes the face-mesh landmark sets produced by the
// external inference engine and the geometric ratios derived from them.
package facemesh

// MinLandmarks is the smallest landmark set the index tables below fit into.
// With refined landmarks the engine returns 478 points; the iris points are unused.
const MinLandmarks = 468

// Point is a landmark position in normalized image coordinates (0-1)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmarks is one face's ordered landmark collection for a single frame
type Landmarks []Point

// Mirror returns a horizontally flipped copy of the landmarks
func (l Landmarks) Mirror() Landmarks {
	out := make(Landmarks, len(l))
	for i, p := range l {
		out[i] = Point{X: 1 - p.X, Y: p.Y}
	}
	return out
}

// EyeDescriptor holds the six landmark indices used for the eye aspect ratio
type EyeDescriptor struct {
	Outer  int // Corner, p1
	Inner  int // Corner, p4
	Upper1 int // Upper lid, p2
	Upper2 int // Upper lid, p3
	Lower1 int // Lower lid under Upper1, p6
	Lower2 int // Lower lid under Upper2, p5
}

// Eye descriptors for the face-mesh topology
var (
	LeftEye  = EyeDescriptor{Outer: 33, Inner: 133, Upper1: 159, Upper2: 158, Lower1: 145, Lower2: 153}
	RightEye = EyeDescriptor{Outer: 362, Inner: 263, Upper1: 386, Upper2: 385, Lower1: 374, Lower2: 380}
)

// Brow and upper-lid point groups used for the brow gap
var (
	LeftBrowPoints    = []int{70, 63, 105}
	RightBrowPoints   = []int{300, 293, 334}
	LeftEyeTopPoints  = []int{159, 158}
	RightEyeTopPoints = []int{386, 385}
)

// Mouth landmark indices
const (
	MouthLeftCorner  = 61
	MouthRightCorner = 291
	MouthTopInner    = 13
	MouthBottomInner = 14
)

// Sample is the set of ratios measured from one frame. All ratios are
// dimensionless and non-negative.
type Sample struct {
	EAR     float64 `json:"ear"`      // Eye aspect ratio, mean of both eyes
	MAR     float64 `json:"mar"`      // Mouth aspect ratio
	BrowGap float64 `json:"brow_gap"` // Brow to upper-lid gap over eye width
}

// InferenceOptions configures the landmark inference engine
type InferenceOptions struct {
	MaxNumFaces            int     `json:"maxNumFaces"`
	RefineLandmarks        bool    `json:"refineLandmarks"`
	MinDetectionConfidence float64 `json:"minDetectionConfidence"`
	MinTrackingConfidence  float64 `json:"minTrackingConfidence"`
}

// DefaultInferenceOptions returns the engine settings used for every session.
// Only one face is ever consumed.
func DefaultInferenceOptions() InferenceOptions {
	return InferenceOptions{
		MaxNumFaces:            1,
		RefineLandmarks:        true,
		MinDetectionConfidence: 0.6,
		MinTrackingConfidence:  0.6,
	}
}
