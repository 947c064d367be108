// Package web serves the browser client, the per-client session socket and
// the observer event feed.
package web

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-facecount/internal/log"
	"github.com/teslashibe/go-facecount/pkg/gesture"
	"github.com/teslashibe/go-facecount/pkg/hub"
	"github.com/teslashibe/go-facecount/pkg/session"
)

// Version is reported by /health
const Version = "1.0.0"

// Config configures the server
type Config struct {
	StaticDir      string         // Browser client, empty to disable
	Gesture        gesture.Config // Pipeline settings for every session
	Sensitivity    float64        // Initial sensitivity for new sessions
	Mirror         bool           // Initial mirror setting for new sessions
	RenderInterval time.Duration  // Overlay cadence
	Debug          bool           // Request logging
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	sc := session.DefaultConfig()
	return Config{
		StaticDir:      "./web",
		Gesture:        sc.Gesture,
		Sensitivity:    sc.Sensitivity,
		Mirror:         sc.Mirror,
		RenderInterval: sc.RenderInterval,
	}
}

// Server is the facecount HTTP and WebSocket server
type Server struct {
	app *fiber.App
	cfg Config
	log *slog.Logger
	ctx context.Context

	sessions   map[string]*clientSession
	sessionsMu sync.RWMutex

	// Observer feed
	events *hub.Hub

	// Counters
	sessionsTotal atomic.Uint64
	framesTotal   atomic.Uint64
	eventsTotal   map[gesture.Kind]*atomic.Uint64
}

// NewServer creates the server and registers all routes
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.With("component", "web"),
		ctx:      context.Background(),
		sessions: make(map[string]*clientSession),
		events:   hub.New("events"),
		eventsTotal: map[gesture.Kind]*atomic.Uint64{
			gesture.KindBlink: {},
			gesture.KindBrow:  {},
			gesture.KindMouth: {},
		},
	}

	app := fiber.New(fiber.Config{
		AppName:               "facecount",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	if cfg.Debug {
		app.Use(logger.New())
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	api := app.Group("/api")
	api.Get("/config", s.handleConfig)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Post("/sessions/:id/reset", s.handleResetSession)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if contribws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/session", contribws.New(s.handleSession))
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve runs the observer hub and accepts connections on ln until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.ctx = ctx
	go s.events.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.log.Warn("shutdown error", "error", err)
		}
	}()

	s.log.Info("listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// ListenAndServe listens on addr and calls Serve
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Events returns the observer hub
func (s *Server) Events() *hub.Hub {
	return s.events
}

// SessionCount returns the number of connected clients
func (s *Server) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

func (s *Server) addSession(cs *clientSession) int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[cs.id] = cs
	s.sessionsTotal.Add(1)
	return len(s.sessions)
}

func (s *Server) removeSession(cs *clientSession) int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, cs.id)
	return len(s.sessions)
}

func (s *Server) getSession(id string) *clientSession {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return s.sessions[id]
}

// sessionConfig returns the orchestrator settings for a new client
func (s *Server) sessionConfig(logger *slog.Logger) session.Config {
	return session.Config{
		Gesture:        s.cfg.Gesture,
		Sensitivity:    s.cfg.Sensitivity,
		Mirror:         s.cfg.Mirror,
		RenderInterval: s.cfg.RenderInterval,
		Logger:         logger,
	}
}

// EventNotice is broadcast to observers for every confirmed gesture
type EventNotice struct {
	SessionID string       `json:"session_id"`
	Kind      gesture.Kind `json:"kind"`
	Count     int          `json:"count"`
	Time      int64        `json:"ts"`
}

// recordEvent counts a gesture and forwards it to observers
func (s *Server) recordEvent(sessionID string, ev gesture.Event) {
	if c, ok := s.eventsTotal[ev.Kind]; ok {
		c.Add(1)
	}
	notice := EventNotice{
		SessionID: sessionID,
		Kind:      ev.Kind,
		Count:     ev.Count,
		Time:      time.Now().UnixMilli(),
	}
	if err := s.events.BroadcastJSON(notice); err != nil {
		s.log.Warn("event broadcast failed", "error", err)
	}
}
