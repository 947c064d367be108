package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
)

type fakeStream struct {
	device string
	closed int
}

func (s *fakeStream) Close() { s.closed++ }

type fakeCamera struct {
	fail     error
	acquired []string
	streams  []*fakeStream
}

func (c *fakeCamera) Acquire(_ context.Context, deviceID string) (Stream, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	s := &fakeStream{device: deviceID}
	c.acquired = append(c.acquired, deviceID)
	c.streams = append(c.streams, s)
	return s, nil
}

type recSink struct {
	mu       sync.Mutex
	statuses []Status
	events   []gesture.Event
}

func (s *recSink) Status(st Status) {
	s.mu.Lock()
	s.statuses = append(s.statuses, st)
	s.mu.Unlock()
}

func (s *recSink) Count(ev gesture.Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *recSink) last() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[len(s.statuses)-1]
}

func (s *recSink) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.statuses))
	for i, st := range s.statuses {
		out[i] = st.Text
	}
	return out
}

// stepClock advances by a fixed step on every call
func stepClock(step time.Duration) func() time.Time {
	t := time.Unix(1000, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func newTestOrchestrator(t *testing.T, cam *fakeCamera, painter Painter) (*Orchestrator, *recSink) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = stepClock(time.Second / 30)
	cfg.RenderInterval = 2 * time.Millisecond
	sink := &recSink{}
	o, err := New(cfg, cam, sink, painter)
	require.NoError(t, err)
	return o, sink
}

func face(ear, mar, gap float64) Results {
	return Results{Faces: []facemesh.Landmarks{facemesh.Synthetic(ear, mar, gap)}}
}

func feed(o *Orchestrator, r Results, n int) {
	for i := 0; i < n; i++ {
		o.HandleResults(r)
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(DefaultConfig(), nil, &recSink{}, nil)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), &fakeCamera{}, nil, nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Gesture.Alpha = 2
	_, err = New(cfg, &fakeCamera{}, &recSink{}, nil)
	assert.Error(t, err)
}

func TestStart_AcquisitionFailure(t *testing.T) {
	denied := errors.New("permission denied")
	cam := &fakeCamera{fail: denied}
	o, sink := newTestOrchestrator(t, cam, nil)

	err := o.Start(context.Background(), "cam-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.ErrorIs(t, err, denied)
	assert.False(t, o.Running())
	assert.Equal(t, TextCameraError, sink.last().Text)

	// No retry happens on its own; a new start succeeds once the device is available
	assert.Empty(t, cam.acquired)
	cam.fail = nil
	require.NoError(t, o.Start(context.Background(), "cam-1"))
	assert.True(t, o.Running())
	assert.Equal(t, []string{"cam-1"}, cam.acquired)
}

func TestStartStop_NoOpWhenAlreadyInState(t *testing.T) {
	cam := &fakeCamera{}
	o, sink := newTestOrchestrator(t, cam, nil)

	o.Stop()
	assert.Empty(t, sink.texts())

	require.NoError(t, o.Start(context.Background(), ""))
	require.NoError(t, o.Start(context.Background(), ""))
	assert.Len(t, cam.acquired, 1)

	o.Stop()
	o.Stop()
	assert.Equal(t, 1, cam.streams[0].closed)
	assert.Equal(t, []string{TextCameraOn, TextCameraOff}, sink.texts())
}

func TestHandleResults_DiscardedWhileStopped(t *testing.T) {
	o, sink := newTestOrchestrator(t, &fakeCamera{}, nil)

	feed(o, face(0.30, 0.25, 0.55), 3)

	assert.Empty(t, sink.texts())
	assert.Equal(t, uint64(3), o.Info().Stats.Discarded)
	assert.Equal(t, 0, o.Pipeline().Baseline().Frames)
}

func TestHandleResults_StatusAndFPS(t *testing.T) {
	o, sink := newTestOrchestrator(t, &fakeCamera{}, nil)
	require.NoError(t, o.Start(context.Background(), ""))

	o.HandleResults(face(0.30, 0.25, 0.55))
	st := sink.last()
	assert.True(t, st.Face)
	assert.Equal(t, "Face detected • EAR=0.300 • MAR=0.250 • GAP=0.550", st.Text)
	assert.Equal(t, 49, st.Warmup)
	assert.Zero(t, st.FPS, "first callback has no previous timestamp")

	o.HandleResults(face(0.30, 0.25, 0.55))
	st = sink.last()
	assert.InDelta(t, 30, st.FPS, 1e-6)
	assert.InDelta(t, 50, st.FPSBar, 1e-6)

	o.HandleResults(Results{})
	st = sink.last()
	assert.Equal(t, TextNoFace, st.Text)
	assert.False(t, st.Face)
	assert.InDelta(t, 30, st.FPS, 1e-6, "fps updates on every callback")

	o.Stop()
	require.NoError(t, o.Start(context.Background(), ""))
	o.HandleResults(face(0.30, 0.25, 0.55))
	assert.Zero(t, sink.last().FPS, "restart drops the previous timestamp")
}

func TestHandleResults_SkippedFramesLeaveStateUnchanged(t *testing.T) {
	o, sink := newTestOrchestrator(t, &fakeCamera{}, nil)
	require.NoError(t, o.Start(context.Background(), ""))

	feed(o, face(0.30, 0.25, 0.55), 50)
	require.True(t, o.Pipeline().Baseline().Settled())

	// Mouth open for two frames
	feed(o, face(0.30, 0.60, 0.55), 2)
	_, mouthRun := o.Pipeline().Detector().Runs()
	require.Equal(t, 2, mouthRun)
	before := o.Pipeline().Smoothed()

	o.HandleResults(Results{})
	o.HandleResults(Results{Err: errors.New("inference failed")})
	assert.Equal(t, TextNoFace, sink.last().Text)

	degenerate := make(facemesh.Landmarks, facemesh.MinLandmarks)
	o.HandleResults(Results{Faces: []facemesh.Landmarks{degenerate}})
	assert.Equal(t, TextDegenerate, sink.last().Text)

	o.HandleResults(Results{Faces: []facemesh.Landmarks{make(facemesh.Landmarks, 10)}})
	assert.Equal(t, TextNoFace, sink.last().Text)

	_, mouthRun = o.Pipeline().Detector().Runs()
	assert.Equal(t, 2, mouthRun, "run counter survives frames without a usable face")
	assert.Equal(t, before, o.Pipeline().Smoothed())

	stats := o.Info().Stats
	assert.Equal(t, uint64(52), stats.Faces)
	assert.Equal(t, uint64(3), stats.NoFace)
	assert.Equal(t, uint64(1), stats.Degenerate)
}

func TestHandleResults_BlinkForwardedToSink(t *testing.T) {
	o, sink := newTestOrchestrator(t, &fakeCamera{}, nil)
	require.NoError(t, o.Start(context.Background(), ""))

	feed(o, face(0.30, 0.25, 0.55), 5)
	feed(o, face(0.05, 0.25, 0.55), 3)
	feed(o, face(0.30, 0.25, 0.55), 3)

	assert.Equal(t, []gesture.Event{{Kind: gesture.KindBlink, Count: 1}}, sink.events)
	assert.Equal(t, 1, o.Counts().Blink)
}

func TestStop_ResetsSessionButKeepsCounts(t *testing.T) {
	cam := &fakeCamera{}
	o, _ := newTestOrchestrator(t, cam, nil)
	require.NoError(t, o.Start(context.Background(), ""))

	feed(o, face(0.30, 0.25, 0.55), 5)
	feed(o, face(0.05, 0.25, 0.55), 2)
	feed(o, face(0.30, 0.25, 0.55), 3)
	feed(o, face(0.05, 0.25, 0.55), 2) // Eyes closed again at stop
	require.Equal(t, 1, o.Counts().Blink)
	require.True(t, o.Pipeline().Detector().EyesClosed())

	o.Stop()

	assert.False(t, o.Pipeline().Detector().EyesClosed())
	assert.Equal(t, 0, o.Pipeline().Baseline().Frames)
	assert.False(t, o.Pipeline().Smoothed().EAR.IsSet())
	assert.Equal(t, 1, o.Counts().Blink)

	require.NoError(t, o.Start(context.Background(), ""))
	o.HandleResults(face(0.30, 0.25, 0.55))
	assert.Equal(t, 1, o.Counts().Blink, "reopening after restart is not a blink")

	o.ResetCounts()
	assert.Equal(t, gesture.Counts{}, o.Counts())
}

func TestSwitchDevice(t *testing.T) {
	cam := &fakeCamera{}
	o, sink := newTestOrchestrator(t, cam, nil)

	// While stopped only the selection changes
	require.NoError(t, o.SwitchDevice(context.Background(), "front"))
	assert.Empty(t, cam.acquired)
	assert.Equal(t, "front", o.DeviceID())

	require.NoError(t, o.Start(context.Background(), "front"))
	feed(o, face(0.30, 0.25, 0.55), 5)
	feed(o, face(0.05, 0.25, 0.55), 2)
	feed(o, face(0.30, 0.25, 0.55), 3)

	require.NoError(t, o.SwitchDevice(context.Background(), "back"))
	assert.Equal(t, []string{"front", "back"}, cam.acquired)
	assert.Equal(t, 1, cam.streams[0].closed)
	assert.Zero(t, cam.streams[1].closed)
	assert.True(t, o.Running())
	assert.Equal(t, 1, o.Counts().Blink)
	assert.Equal(t, 0, o.Pipeline().Baseline().Frames)

	texts := sink.texts()
	assert.Equal(t, []string{TextCameraOff, TextCameraOn}, texts[len(texts)-2:])
}

func TestSwitchDevice_FailureLeavesStopped(t *testing.T) {
	cam := &fakeCamera{}
	o, _ := newTestOrchestrator(t, cam, nil)
	require.NoError(t, o.Start(context.Background(), "front"))

	cam.fail = errors.New("not found")
	err := o.SwitchDevice(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.False(t, o.Running())
	assert.Equal(t, 1, cam.streams[0].closed)
}

func TestSetSensitivity(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeCamera{}, nil)

	o.SetSensitivity(150)
	assert.Equal(t, 100.0, o.Sensitivity())
	o.SetSensitivity(-3)
	assert.Equal(t, 0.0, o.Sensitivity())
	o.SetSensitivity(math.NaN())
	assert.Equal(t, 50.0, o.Sensitivity())
}

func TestSensitivity_AppliesToNextFrame(t *testing.T) {
	o, sink := newTestOrchestrator(t, &fakeCamera{}, nil)
	require.NoError(t, o.Start(context.Background(), ""))

	// EAR 0.17 is closed at sensitivity 50 (earOn 0.19) but open at 0 (earOn 0.133)
	feed(o, face(0.30, 0.25, 0.55), 3)
	feed(o, face(0.17, 0.25, 0.55), 5)
	feed(o, face(0.30, 0.25, 0.55), 5)
	require.Len(t, sink.events, 1)

	o.SetSensitivity(0)
	feed(o, face(0.17, 0.25, 0.55), 5)
	feed(o, face(0.30, 0.25, 0.55), 5)
	assert.Len(t, sink.events, 1)
	assert.Equal(t, 1, o.Counts().Blink)
}
