package web

import (
	"bufio"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-trainer/pkg/exercise"
	"github.com/teslashibe/go-trainer/pkg/hub"
	"github.com/teslashibe/go-trainer/pkg/protocol"
	"github.com/teslashibe/go-trainer/pkg/trainer"
)

// handleIndex serves the single-page UI
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// handleVideoFeed streams annotated frames as multipart MJPEG
func (s *Server) handleVideoFeed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary=frame")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")

	id, frames := s.frames.Subscribe()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.frames.Unsubscribe(id)

		for {
			var data []byte
			select {
			case frame, ok := <-frames:
				if !ok {
					return
				}
				data = frame
			case <-time.After(s.keepAlive):
				// Capture stalled; a failed resend means the viewer is gone
				if data = s.frames.Latest(); data == nil {
					continue
				}
			}
			if err := writeFrame(w, data); err != nil {
				s.logger.Debug("stream client disconnected", "client", id, "error", err)
				return
			}
		}
	})
	return nil
}

// writeFrame writes one multipart JPEG part and flushes it to the client.
func writeFrame(w *bufio.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

// handleHealth reports liveness and the active exercise
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"session":  s.session.ID(),
		"exercise": s.session.Active().String(),
		"clients":  s.statsHub.ClientCount(),
		"viewers":  s.frames.ClientCount(),
	})
}

// handleStats returns the active exercise's stats
func (s *Server) handleStats(c *fiber.Ctx) error {
	st, ok := s.session.Stats()
	if !ok {
		return c.JSON(fiber.Map{"exercise": exercise.None.String()})
	}
	return c.JSON(st)
}

// handleStatsFor returns one exercise's stats
func (s *Server) handleStatsFor(c *fiber.Ctx) error {
	t := exercise.Parse(c.Params("exercise"))
	st, ok := s.session.StatsFor(t)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown exercise: " + c.Params("exercise"),
		})
	}
	return c.JSON(st)
}

// handleSetExercise switches the active exercise. Unknown ids select none.
func (s *Server) handleSetExercise(c *fiber.Ctx) error {
	id := c.Params("id")
	t := s.setExercise(id)
	return c.JSON(fiber.Map{"exercise": t.String()})
}

// handleReset zeroes one exercise's counter
func (s *Server) handleReset(c *fiber.Ctx) error {
	t := exercise.Parse(c.Params("id"))
	if err := s.resetExercise(t); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	st, _ := s.session.StatsFor(t)
	return c.JSON(st)
}

// handleStatsWS handles WebSocket connections for stats and control
func (s *Server) handleStatsWS(c *websocket.Conn) {
	client := hub.NewClient(s.statsHub, c)
	if client == nil {
		return
	}
	client.Run() // Blocks until connection closes
}

// handleSocketConnect tells a new client which exercise is active
func (s *Server) handleSocketConnect(c *hub.Client) {
	if s.metrics != nil {
		s.metrics.ActiveClients.Add(1)
	}
	msg, err := protocol.NewExerciseChangedMessage(s.session.Active().String())
	s.reply(c, msg, err)
}

// handleSocketMessage dispatches one inbound client message
func (s *Server) handleSocketMessage(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.replyError(c, "invalid message: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeSetExercise:
		d, err := msg.GetExerciseData()
		if err != nil {
			s.replyError(c, "%v", err)
			return
		}
		s.setExercise(d.Exercise)

	case protocol.TypeReset:
		d, err := msg.GetExerciseData()
		if err != nil {
			s.replyError(c, "%v", err)
			return
		}
		t := s.session.Active()
		if d.Exercise != "" {
			t = exercise.Parse(d.Exercise)
		}
		if err := s.resetExercise(t); err != nil {
			s.replyError(c, "%v", err)
		}

	case protocol.TypePing:
		pong, err := protocol.NewPongMessage(msg.Timestamp)
		s.reply(c, pong, err)

	default:
		s.replyError(c, "unknown message type: %s", msg.Type)
	}
}

// setExercise switches the active exercise and announces the id as sent.
func (s *Server) setExercise(id string) exercise.Type {
	t := s.session.SetActiveExercise(id)
	s.logger.Info("exercise changed", "requested", id, "active", t.String())

	msg, err := protocol.NewExerciseChangedMessage(id)
	if err != nil {
		s.logger.Warn("encode exercise_changed", "error", err)
		return t
	}
	s.broadcast(msg)
	return t
}

func (s *Server) resetExercise(t exercise.Type) error {
	if err := s.session.Reset(t); err != nil {
		if errors.Is(err, trainer.ErrUnsupportedExercise) {
			return fmt.Errorf("cannot reset %s: %w", t, err)
		}
		return err
	}
	if t == s.session.Active() {
		s.PublishStats()
	}
	return nil
}

func (s *Server) replyError(c *hub.Client, format string, args ...interface{}) {
	msg, err := protocol.NewErrorMessage(format, args...)
	s.reply(c, msg, err)
}
