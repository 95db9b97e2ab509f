// Package web serves the trainer UI, the MJPEG feed, the stats websocket and
// a small REST API.
package web

import (
	_ "embed"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-trainer/pkg/camera"
	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/hub"
	"github.com/teslashibe/go-trainer/pkg/metrics"
	"github.com/teslashibe/go-trainer/pkg/protocol"
	"github.com/teslashibe/go-trainer/pkg/trainer"
)

// keepAliveInterval is how long an idle video stream waits before resending
// the latest frame. A failed resend ends the stream and releases the viewer.
const keepAliveInterval = 5 * time.Second

//go:embed static/index.html
var indexHTML []byte

// Server is the trainer's HTTP and websocket front end
type Server struct {
	app  *fiber.App
	addr string

	session *trainer.Session
	frames  *camera.FrameBroadcaster
	metrics *metrics.Metrics
	logger  *slog.Logger

	// Idle time before a video stream resends the latest frame
	keepAlive time.Duration

	// Hub for the stats/control socket (thread-safe!)
	statsHub *hub.Hub
}

// NewServer creates the server. m may be nil, in which case /metrics is not mounted.
func NewServer(addr string, session *trainer.Session, frames *camera.FrameBroadcaster, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:      addr,
		session:   session,
		frames:    frames,
		metrics:   m,
		logger:    logger,
		keepAlive: keepAliveInterval,
		statsHub:  hub.New("stats", logger),
	}

	s.statsHub.OnMessage(s.handleSocketMessage)
	s.statsHub.OnConnect(s.handleSocketConnect)
	s.statsHub.OnDisconnect(func(*hub.Client) {
		if s.metrics != nil {
			s.metrics.ActiveClients.Add(-1)
		}
	})

	app := fiber.New(fiber.Config{
		AppName:               "Trainer",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/video_feed", s.handleVideoFeed)

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/stats", s.handleStats)
	api.Get("/stats/:exercise", s.handleStatsFor)
	api.Post("/exercise/:id", s.handleSetExercise)
	api.Post("/reset/:id", s.handleReset)

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/stats", websocket.New(s.handleStatsWS))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hub and serves on the configured address. It blocks.
func (s *Server) Start() error {
	go s.statsHub.Run()
	s.logger.Info("web server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Serve runs the hub and serves on ln. It blocks.
func (s *Server) Serve(ln net.Listener) error {
	go s.statsHub.Run()
	s.logger.Info("web server listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// PublishStats broadcasts the active exercise's stats to socket clients.
// Nothing is sent while no exercise is active.
func (s *Server) PublishStats() {
	st, ok := s.session.Stats()
	if !ok || st.Exercise == exercise.None {
		return
	}
	msg, err := protocol.NewStatsMessage(st.Reps, st.Feedback, st.Rate)
	if err != nil {
		s.logger.Warn("encode stats", "error", err)
		return
	}
	s.broadcast(msg)
}

// ClientCount returns the number of connected socket clients.
func (s *Server) ClientCount() int {
	return s.statsHub.ClientCount()
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	s.statsHub.Stop()
	s.frames.Close()
	return s.app.Shutdown()
}

func (s *Server) broadcast(msg *protocol.Message) {
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Warn("encode message", "type", msg.Type, "error", err)
		return
	}
	s.statsHub.Broadcast(hub.NewJSONMessage(data))
}

func (s *Server) reply(c *hub.Client, msg *protocol.Message, err error) {
	if err != nil {
		s.logger.Warn("build reply", "error", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		s.logger.Warn("encode reply", "type", msg.Type, "error", err)
		return
	}
	c.Send(hub.NewJSONMessage(data))
}
