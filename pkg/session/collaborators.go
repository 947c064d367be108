package session

import (
	"context"
	"errors"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
)

// ErrDeviceUnavailable is returned by Start when the camera cannot be acquired
var ErrDeviceUnavailable = errors.New("camera device unavailable")

// Camera acquires video streams. An empty deviceID selects the default
// user-facing camera.
type Camera interface {
	Acquire(ctx context.Context, deviceID string) (Stream, error)
}

// Stream is an acquired camera stream
type Stream interface {
	Close()
}

// Results is one inference callback. Only the first face is used.
type Results struct {
	Faces []facemesh.Landmarks
	Err   error
}

// Status is the status line shown to the user
type Status struct {
	Text    string
	Running bool
	Face    bool
	Sample  facemesh.Sample // Smoothed, only meaningful when Face is set
	FPS     float64
	FPSBar  float64
	Warmup  int
}

// Sink receives status updates and count increments
type Sink interface {
	Status(Status)
	Count(gesture.Event)
}

// Overlay is one set of landmark points to draw over the video
type Overlay struct {
	Points facemesh.Landmarks
	Mirror bool
	Seq    uint64
}

// Painter draws landmark overlays
type Painter interface {
	Paint(Overlay)
}
