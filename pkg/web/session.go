package web

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
	"github.com/teslashibe/go-facecount/pkg/protocol"
	"github.com/teslashibe/go-facecount/pkg/session"
)

const sessionWriteWait = 5 * time.Second

// clientCamera stands in for the browser's camera. The browser acquires the
// device itself and reports failures with camera_error before asking to start.
type clientCamera struct {
	mu      sync.Mutex
	failure error
	active  string
}

func (c *clientCamera) Acquire(_ context.Context, deviceID string) (session.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure; err != nil {
		c.failure = nil
		return nil, err
	}
	c.active = deviceID
	return &clientStream{camera: c}, nil
}

// fail makes the next acquisition fail with err
func (c *clientCamera) fail(err error) {
	c.mu.Lock()
	c.failure = err
	c.mu.Unlock()
}

type clientStream struct {
	camera *clientCamera
}

func (s *clientStream) Close() {
	s.camera.mu.Lock()
	s.camera.active = ""
	s.camera.mu.Unlock()
}

// clientSession is one connected browser. It is the orchestrator's sink and painter.
type clientSession struct {
	id        string
	conn      *contribws.Conn
	server    *Server
	camera    *clientCamera
	orch      *session.Orchestrator
	log       *slog.Logger
	connected time.Time

	// Status, count and overlay writes come from different goroutines
	writeMu sync.Mutex
	// closed is set once the socket handler has returned
	closed bool
}

// send writes one message to the client. It takes the constructor's return
// values directly.
func (cs *clientSession) send(msg *protocol.Message, err error) {
	if err != nil {
		cs.log.Warn("encode failed", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		cs.log.Warn("encode failed", "type", msg.Type, "error", err)
		return
	}

	cs.writeMu.Lock()
	defer cs.writeMu.Unlock()
	if cs.closed {
		cs.log.Debug("send after close dropped", "type", msg.Type)
		return
	}

	cs.conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
	if err := cs.conn.WriteMessage(contribws.TextMessage, data); err != nil {
		cs.log.Debug("write failed", "type", msg.Type, "error", err)
	}
}

// close stops further writes; the conn is released once the handler returns
func (cs *clientSession) close() {
	cs.writeMu.Lock()
	cs.closed = true
	cs.writeMu.Unlock()
}

// Status implements session.Sink
func (cs *clientSession) Status(st session.Status) {
	cs.send(protocol.NewStatusMessage(protocol.StatusData{
		Text:    st.Text,
		Running: st.Running,
		Face:    st.Face,
		EAR:     st.Sample.EAR,
		MAR:     st.Sample.MAR,
		Gap:     st.Sample.BrowGap,
		FPS:     st.FPS,
		FPSBar:  st.FPSBar,
		Warmup:  st.Warmup,
	}))
}

// Count implements session.Sink
func (cs *clientSession) Count(ev gesture.Event) {
	cs.send(protocol.NewCountMessage(ev))
	cs.server.recordEvent(cs.id, ev)
}

// Paint implements session.Painter
func (cs *clientSession) Paint(ov session.Overlay) {
	cs.send(protocol.NewOverlayMessage(ov.Points, ov.Mirror, ov.Seq))
}

// sendCounts pushes every total, e.g. after a reset
func (cs *clientSession) sendCounts() {
	c := cs.orch.Counts()
	cs.send(protocol.NewCountMessage(gesture.Event{Kind: gesture.KindBlink, Count: c.Blink}))
	cs.send(protocol.NewCountMessage(gesture.Event{Kind: gesture.KindBrow, Count: c.Brow}))
	cs.send(protocol.NewCountMessage(gesture.Event{Kind: gesture.KindMouth, Count: c.Mouth}))
}

// handleSession runs one browser connection
func (s *Server) handleSession(c *contribws.Conn) {
	id := uuid.NewString()
	cs := &clientSession{
		id:        id,
		conn:      c,
		server:    s,
		camera:    &clientCamera{},
		log:       s.log.With("session", id),
		connected: time.Now(),
	}

	orch, err := session.New(s.sessionConfig(cs.log), cs.camera, cs, cs)
	if err != nil {
		cs.log.Error("session setup failed", "error", err)
		cs.send(protocol.NewErrorMessage(err.Error()))
		return
	}
	cs.orch = orch

	count := s.addSession(cs)
	cs.log.Info("client connected", "sessions", count)

	ctx, cancel := context.WithCancel(s.ctx)
	defer func() {
		cancel()
		orch.Stop()
		count := s.removeSession(cs)
		cs.close()
		cs.log.Info("client disconnected", "sessions", count)
	}()

	cs.send(protocol.NewHelloMessage(protocol.HelloData{
		SessionID:   id,
		Inference:   facemesh.DefaultInferenceOptions(),
		Sensitivity: orch.Sensitivity(),
		Mirror:      orch.Mirror(),
		Counts:      orch.Counts(),
	}))

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			cs.log.Debug("read ended", "error", err)
			return
		}
		cs.handleMessage(ctx, data)
	}
}

// handleMessage dispatches one client message
func (cs *clientSession) handleMessage(ctx context.Context, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		cs.log.Debug("parse error", "error", err)
		cs.send(protocol.NewErrorMessage(err.Error()))
		return
	}

	switch msg.Type {
	case protocol.TypeStart:
		start, err := msg.GetStartData()
		if err != nil {
			cs.send(protocol.NewErrorMessage(err.Error()))
			return
		}
		if err := cs.orch.Start(ctx, start.DeviceID); err != nil {
			cs.send(protocol.NewErrorMessage(err.Error()))
		}

	case protocol.TypeStop:
		cs.orch.Stop()

	case protocol.TypeResults:
		res, err := msg.GetResultsData()
		if err != nil {
			cs.log.Debug("bad results", "error", err)
			return
		}
		cs.server.framesTotal.Add(1)
		r := session.Results{Faces: res.Faces}
		if res.Error != "" {
			r.Err = errors.New(res.Error)
		}
		cs.orch.HandleResults(r)

	case protocol.TypeConfig:
		cfg, err := msg.GetConfigData()
		if err != nil {
			cs.send(protocol.NewErrorMessage(err.Error()))
			return
		}
		if cfg.Sensitivity != nil {
			cs.orch.SetSensitivity(*cfg.Sensitivity)
		}
		if cfg.Mirror != nil {
			cs.orch.SetMirror(*cfg.Mirror)
		}
		if cfg.DeviceID != nil {
			if err := cs.orch.SwitchDevice(ctx, *cfg.DeviceID); err != nil {
				cs.send(protocol.NewErrorMessage(err.Error()))
			}
		}

	case protocol.TypeCameraError:
		report, err := msg.GetCameraErrorData()
		if err != nil {
			cs.send(protocol.NewErrorMessage(err.Error()))
			return
		}
		// A running stream that fails is gone
		cs.orch.Stop()
		cs.camera.fail(errors.New(report.Message))
		if err := cs.orch.Start(ctx, report.DeviceID); err != nil {
			cs.send(protocol.NewErrorMessage(err.Error()))
		}

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return
		}
		cs.send(protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli()))

	default:
		cs.send(protocol.NewErrorMessage("unsupported message type: " + string(msg.Type)))
	}
}
