// Package session runs the per-client frame pipeline: camera lifecycle,
// inference callbacks, status reporting and the landmark overlay.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-facecount/internal/log"
	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
)

// Status texts
const (
	TextCameraOn    = "Camera on"
	TextCameraOff   = "Camera off"
	TextCameraError = "Camera error"
	TextNoFace      = "Face not detected"
	TextDegenerate  = "Face geometry degenerate"
)

// Config configures an Orchestrator
type Config struct {
	Gesture        gesture.Config
	Sensitivity    float64 // Initial sensitivity, 0-100
	Mirror         bool    // Initial mirror setting
	RenderInterval time.Duration
	Clock          func() time.Time // Defaults to time.Now
	Logger         *slog.Logger
}

// DefaultConfig returns the settings a fresh client starts with
func DefaultConfig() Config {
	return Config{
		Gesture:        gesture.DefaultConfig(),
		Sensitivity:    50,
		Mirror:         true,
		RenderInterval: DefaultRenderInterval,
	}
}

// Stats are frame counters since the orchestrator was created
type Stats struct {
	Callbacks  uint64 `json:"callbacks"`
	Faces      uint64 `json:"faces"`
	NoFace     uint64 `json:"no_face"`
	Degenerate uint64 `json:"degenerate"`
	Discarded  uint64 `json:"discarded"` // Callbacks that arrived while stopped
}

// Info is a point-in-time view of an orchestrator
type Info struct {
	Running     bool           `json:"running"`
	DeviceID    string         `json:"device_id"`
	Sensitivity float64        `json:"sensitivity"`
	Mirror      bool           `json:"mirror"`
	Counts      gesture.Counts `json:"counts"`
	Warmup      int            `json:"warmup"`
	FPS         float64        `json:"fps"`
	Stats       Stats          `json:"stats"`
}

// Orchestrator owns one client's session: the camera stream, the gesture
// pipeline and the render loop. Inference callbacks are processed one at a
// time in arrival order.
type Orchestrator struct {
	camera  Camera
	sink    Sink
	painter Painter
	clock   func() time.Time
	log     *slog.Logger

	renderInterval time.Duration

	mu          sync.Mutex
	pipeline    *gesture.Pipeline
	fps         FPSMeter
	running     bool
	deviceID    string
	stream      Stream
	sensitivity float64
	stats       Stats

	renderCancel context.CancelFunc
	renderDone   chan struct{}

	frames FrameBuffer
	mirror atomic.Bool
}

// New creates an orchestrator. painter may be nil, in which case no overlay is drawn.
func New(cfg Config, camera Camera, sink Sink, painter Painter) (*Orchestrator, error) {
	if camera == nil {
		return nil, errors.New("session: camera is required")
	}
	if sink == nil {
		return nil, errors.New("session: sink is required")
	}

	p, err := gesture.NewPipeline(cfg.Gesture)
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.L()
	}

	o := &Orchestrator{
		camera:         camera,
		sink:           sink,
		painter:        painter,
		clock:          clock,
		log:            logger,
		renderInterval: cfg.RenderInterval,
		pipeline:       p,
		sensitivity:    gesture.ClampSensitivity(cfg.Sensitivity, cfg.Gesture.NeutralSensitivity),
	}
	o.mirror.Store(cfg.Mirror)
	return o, nil
}

// Start acquires the camera and begins accepting inference callbacks.
// It is a no-op while running. ctx bounds the acquisition and the render loop.
func (o *Orchestrator) Start(ctx context.Context, deviceID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.deviceID = deviceID
	return o.startLocked(ctx)
}

// Stop releases the camera and clears per-session state. Counts are kept.
// It is a no-op while stopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()
}

// SwitchDevice selects another camera. While running the current stream is
// stopped and the new one started.
func (o *Orchestrator) SwitchDevice(ctx context.Context, deviceID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.deviceID = deviceID
	if !o.running {
		return nil
	}
	o.stopLocked()
	return o.startLocked(ctx)
}

func (o *Orchestrator) startLocked(ctx context.Context) error {
	if o.running {
		return nil
	}

	stream, err := o.camera.Acquire(ctx, o.deviceID)
	if err != nil {
		o.log.Warn("camera acquisition failed", "device", o.deviceID, "error", err)
		o.sink.Status(Status{Text: TextCameraError})
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	o.stream = stream
	o.running = true
	o.fps.Reset()

	if o.painter != nil {
		rctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		o.renderCancel, o.renderDone = cancel, done
		r := &Renderer{Frames: &o.frames, Mirror: &o.mirror, Painter: o.painter}
		go func() {
			defer close(done)
			r.RenderLoop(rctx, o.renderInterval)
		}()
	}

	o.log.Info("session started", "device", o.deviceID)
	o.sink.Status(Status{Text: TextCameraOn, Running: true})
	return nil
}

func (o *Orchestrator) stopLocked() {
	if !o.running {
		return
	}
	o.running = false

	if o.renderCancel != nil {
		o.renderCancel()
		<-o.renderDone
		o.renderCancel, o.renderDone = nil, nil
	}
	if o.stream != nil {
		o.stream.Close()
		o.stream = nil
	}

	o.frames.Clear()
	o.pipeline.Reset()

	o.log.Info("session stopped", "device", o.deviceID)
	o.sink.Status(Status{Text: TextCameraOff})
}

// HandleResults processes one inference callback. Callbacks that arrive
// while stopped are discarded.
func (o *Orchestrator) HandleResults(r Results) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		o.stats.Discarded++
		return
	}
	o.stats.Callbacks++

	status := Status{Running: true}
	if fps, ok := o.fps.Tick(o.clock()); ok {
		status.FPS = fps
		status.FPSBar = FPSBar(fps)
	} else {
		status.FPS = o.fps.FPS()
		status.FPSBar = FPSBar(status.FPS)
	}

	if r.Err != nil || len(r.Faces) == 0 {
		if r.Err != nil {
			o.log.Debug("inference failed", "error", r.Err)
		}
		o.stats.NoFace++
		status.Text = TextNoFace
		o.sink.Status(status)
		return
	}

	lm := r.Faces[0]
	sample, err := facemesh.Measure(lm)
	if err != nil {
		status.Text = TextNoFace
		if errors.Is(err, facemesh.ErrDegenerateGeometry) {
			o.stats.Degenerate++
			status.Text = TextDegenerate
		} else {
			o.stats.NoFace++
		}
		o.log.Debug("frame skipped", "error", err)
		o.sink.Status(status)
		return
	}
	o.stats.Faces++

	res := o.pipeline.Process(sample, o.sensitivity)
	for _, ev := range res.Events {
		o.log.Debug("gesture", "kind", ev.Kind, "count", ev.Count)
		o.sink.Count(ev)
	}

	o.frames.Store(lm)

	status.Face = true
	status.Sample = res.Smoothed
	status.Warmup = res.Warmup
	status.Text = FaceText(res.Smoothed)
	o.sink.Status(status)
}

// FaceText formats the status line for a detected face
func FaceText(s facemesh.Sample) string {
	return fmt.Sprintf("Face detected • EAR=%.3f • MAR=%.3f • GAP=%.3f", s.EAR, s.MAR, s.BrowGap)
}

// SetSensitivity changes the sensitivity used from the next frame on
func (o *Orchestrator) SetSensitivity(pct float64) {
	o.mu.Lock()
	o.sensitivity = gesture.ClampSensitivity(pct, o.pipeline.Config().NeutralSensitivity)
	o.mu.Unlock()
}

// Sensitivity returns the current sensitivity
func (o *Orchestrator) Sensitivity() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sensitivity
}

// SetMirror toggles horizontal mirroring of the overlay
func (o *Orchestrator) SetMirror(on bool) {
	o.mirror.Store(on)
}

// Mirror returns the mirror setting
func (o *Orchestrator) Mirror() bool {
	return o.mirror.Load()
}

// Counts returns the gesture totals
func (o *Orchestrator) Counts() gesture.Counts {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pipeline.Counts()
}

// ResetCounts zeroes the gesture totals
func (o *Orchestrator) ResetCounts() {
	o.mu.Lock()
	o.pipeline.ResetCounts()
	o.mu.Unlock()
}

// Running reports whether a camera stream is active
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// DeviceID returns the selected camera device
func (o *Orchestrator) DeviceID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deviceID
}

// Info returns a snapshot of the session
func (o *Orchestrator) Info() Info {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Info{
		Running:     o.running,
		DeviceID:    o.deviceID,
		Sensitivity: o.sensitivity,
		Mirror:      o.mirror.Load(),
		Counts:      o.pipeline.Counts(),
		Warmup:      o.pipeline.Baseline().Remaining(),
		FPS:         o.fps.FPS(),
		Stats:       o.stats,
	}
}

// Pipeline exposes the gesture pipeline for inspection. Callers must not
// use it concurrently with HandleResults.
func (o *Orchestrator) Pipeline() *gesture.Pipeline {
	return o.pipeline
}
