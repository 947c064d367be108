package web

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
	"github.com/teslashibe/go-facecount/pkg/hub"
	"github.com/teslashibe/go-facecount/pkg/session"
)

// SessionInfo describes one connected client
type SessionInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	session.Info
}

func (cs *clientSession) info() SessionInfo {
	return SessionInfo{
		ID:        cs.id,
		Connected: cs.connected,
		Info:      cs.orch.Info(),
	}
}

// handleHealth reports liveness
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"version":   Version,
		"sessions":  s.SessionCount(),
		"observers": s.events.ClientCount(),
	})
}

// handleMetrics reports counters in Prometheus text format
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	stats := s.events.GetStats()

	var b strings.Builder
	fmt.Fprintf(&b, "# HELP facecount_sessions Connected clients\n# TYPE facecount_sessions gauge\nfacecount_sessions %d\n\n", s.SessionCount())
	fmt.Fprintf(&b, "# HELP facecount_sessions_total Clients connected since start\n# TYPE facecount_sessions_total counter\nfacecount_sessions_total %d\n\n", s.sessionsTotal.Load())
	fmt.Fprintf(&b, "# HELP facecount_frames_total Inference results received\n# TYPE facecount_frames_total counter\nfacecount_frames_total %d\n\n", s.framesTotal.Load())

	b.WriteString("# HELP facecount_events_total Confirmed gestures\n# TYPE facecount_events_total counter\n")
	for _, kind := range []gesture.Kind{gesture.KindBlink, gesture.KindBrow, gesture.KindMouth} {
		fmt.Fprintf(&b, "facecount_events_total{kind=%q} %d\n", kind, s.eventsTotal[kind].Load())
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "# HELP facecount_observers Connected event observers\n# TYPE facecount_observers gauge\nfacecount_observers %d\n\n", stats.Observers)
	fmt.Fprintf(&b, "# HELP facecount_observers_dropped_total Observers dropped for falling behind\n# TYPE facecount_observers_dropped_total counter\nfacecount_observers_dropped_total %d\n", stats.Dropped)

	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4")
	return c.SendString(b.String())
}

// handleConfig returns the settings clients run with
func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"inference":   facemesh.DefaultInferenceOptions(),
		"gesture":     s.cfg.Gesture,
		"sensitivity": s.cfg.Sensitivity,
		"mirror":      s.cfg.Mirror,
	})
}

// sessionInfos lists connected clients, oldest first
func (s *Server) sessionInfos() []SessionInfo {
	s.sessionsMu.RLock()
	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, cs := range s.sessions {
		infos = append(infos, cs.info())
	}
	s.sessionsMu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Connected.Before(infos[j].Connected)
	})
	return infos
}

// handleListSessions lists connected clients
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	infos := s.sessionInfos()
	return c.JSON(fiber.Map{
		"sessions": infos,
		"count":    len(infos),
	})
}

// handleGetSession returns one client
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	cs := s.getSession(c.Params("id"))
	if cs == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	return c.JSON(cs.info())
}

// handleResetSession zeroes a client's counts and pushes the new totals
func (s *Server) handleResetSession(c *fiber.Ctx) error {
	cs := s.getSession(c.Params("id"))
	if cs == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	cs.orch.ResetCounts()
	cs.sendCounts()
	cs.log.Info("counts reset")

	return c.JSON(fiber.Map{"status": "reset", "counts": cs.orch.Counts()})
}

// handleEventsWS streams gesture notices to an observer
func (s *Server) handleEventsWS(c *websocket.Conn) {
	hub.NewClient(c).Serve(s.ctx, s.events)
}
