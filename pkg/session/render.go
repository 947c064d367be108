package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
)

// DefaultRenderInterval paints at roughly display refresh rate
const DefaultRenderInterval = time.Second / 30

// Frame is a stored landmark set with its sequence number
type Frame struct {
	Landmarks facemesh.Landmarks
	Seq       uint64
}

// FrameBuffer holds the most recent face landmarks. It is written by the
// frame pipeline and read by the render loop without locking.
type FrameBuffer struct {
	latest atomic.Pointer[Frame]
	seq    atomic.Uint64
}

// Store replaces the latest frame and returns its sequence number
func (b *FrameBuffer) Store(lm facemesh.Landmarks) uint64 {
	seq := b.seq.Add(1)
	b.latest.Store(&Frame{Landmarks: lm, Seq: seq})
	return seq
}

// Load returns the latest frame
func (b *FrameBuffer) Load() (Frame, bool) {
	f := b.latest.Load()
	if f == nil {
		return Frame{}, false
	}
	return *f, true
}

// Clear drops the stored frame. Sequence numbers keep increasing.
func (b *FrameBuffer) Clear() {
	b.latest.Store(nil)
}

// Renderer paints the latest frame at its own cadence, independent of the
// inference rate. It never touches detector state.
type Renderer struct {
	Frames  *FrameBuffer
	Mirror  *atomic.Bool
	Painter Painter
}

// RenderLoop paints until ctx is done. A frame is painted once, and again
// if the mirror setting changes while it is on screen.
func (r *Renderer) RenderLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRenderInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSeq uint64
	var lastMirror bool

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f, ok := r.Frames.Load()
			if !ok {
				continue
			}
			mirror := r.Mirror.Load()
			if f.Seq == lastSeq && mirror == lastMirror {
				continue
			}
			lastSeq, lastMirror = f.Seq, mirror
			r.Painter.Paint(r.overlay(f, mirror))
		}
	}
}

func (r *Renderer) overlay(f Frame, mirror bool) Overlay {
	points := f.Landmarks
	if mirror {
		points = points.Mirror()
	}
	return Overlay{Points: points, Mirror: mirror, Seq: f.Seq}
}
