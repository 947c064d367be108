package facemesh

// Layout of the synthetic face, in normalized coordinates
const (
	synthPoints    = 478
	synthEyeWidth  = 0.1
	synthEyeY      = 0.40
	synthMouthY    = 0.70
	synthMouthLeft = 0.40
	synthMouthW    = 0.2
)

// Synthetic builds a landmark set whose measured ratios are ear, mar and gap.
// Points not used by any ratio sit at the image center. It is used by tests
// and by the replay tool's demo mode.
func Synthetic(ear, mar, gap float64) Landmarks {
	lm := make(Landmarks, synthPoints)
	for i := range lm {
		lm[i] = Point{X: 0.5, Y: 0.5}
	}

	placeEye(lm, LeftEye, LeftBrowPoints, 0.30, 0.40, ear, gap)
	placeEye(lm, RightEye, RightBrowPoints, 0.70, 0.60, ear, gap)

	opening := mar * synthMouthW
	lm[MouthLeftCorner] = Point{X: synthMouthLeft, Y: synthMouthY}
	lm[MouthRightCorner] = Point{X: synthMouthLeft + synthMouthW, Y: synthMouthY}
	lm[MouthTopInner] = Point{X: 0.5, Y: synthMouthY - opening/2}
	lm[MouthBottomInner] = Point{X: 0.5, Y: synthMouthY + opening/2}

	return lm
}

// placeEye lays out one eye between outerX and innerX plus the brow above it
func placeEye(lm Landmarks, eye EyeDescriptor, brow []int, outerX, innerX, ear, gap float64) {
	h := ear * synthEyeWidth
	top := synthEyeY - h/2
	bottom := synthEyeY + h/2
	x1 := outerX + (innerX-outerX)*0.4
	x2 := outerX + (innerX-outerX)*0.6

	lm[eye.Outer] = Point{X: outerX, Y: synthEyeY}
	lm[eye.Inner] = Point{X: innerX, Y: synthEyeY}
	lm[eye.Upper1] = Point{X: x1, Y: top}
	lm[eye.Upper2] = Point{X: x2, Y: top}
	lm[eye.Lower1] = Point{X: x1, Y: bottom}
	lm[eye.Lower2] = Point{X: x2, Y: bottom}

	browY := top - gap*(synthEyeWidth+gapEpsilon)
	for i, idx := range brow {
		lm[idx] = Point{X: outerX + (innerX-outerX)*float64(i)/2, Y: browY}
	}
}
