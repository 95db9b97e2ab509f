package camera

import (
	"log/slog"
	"sync"
)

// FrameBroadcaster fans encoded JPEG frames out to stream viewers.
// Slow viewers miss frames rather than stall the capture loop.
type FrameBroadcaster struct {
	mu      sync.Mutex
	clients map[int]chan []byte
	nextID  int
	latest  []byte
	closed  bool
	logger  *slog.Logger
}

// NewFrameBroadcaster creates an empty broadcaster.
func NewFrameBroadcaster(logger *slog.Logger) *FrameBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameBroadcaster{
		clients: make(map[int]chan []byte),
		logger:  logger,
	}
}

// Subscribe adds a new client and returns a channel for receiving frames.
// The channel is primed with the latest frame when one exists.
func (fb *FrameBroadcaster) Subscribe() (int, <-chan []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	id := fb.nextID
	fb.nextID++
	ch := make(chan []byte, 2) // Buffer 2 frames to avoid blocking
	if fb.closed {
		close(ch)
		return id, ch
	}
	if fb.latest != nil {
		ch <- fb.latest
	}
	fb.clients[id] = ch

	fb.logger.Debug("stream client subscribed", "client", id, "total", len(fb.clients))
	return id, ch
}

// Unsubscribe removes a client.
func (fb *FrameBroadcaster) Unsubscribe(id int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if ch, ok := fb.clients[id]; ok {
		close(ch)
		delete(fb.clients, id)
		fb.logger.Debug("stream client unsubscribed", "client", id, "remaining", len(fb.clients))
	}
}

// Publish delivers a frame to every subscriber whose buffer has room.
func (fb *FrameBroadcaster) Publish(frame []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return
	}
	fb.latest = frame
	for _, ch := range fb.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Latest returns the most recently published frame, or nil.
func (fb *FrameBroadcaster) Latest() []byte {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.latest
}

// ClientCount returns the number of subscribed viewers.
func (fb *FrameBroadcaster) ClientCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.clients)
}

// Close closes every subscriber channel. Later subscribers get a closed channel.
func (fb *FrameBroadcaster) Close() {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return
	}
	fb.closed = true
	for id, ch := range fb.clients {
		close(ch)
		delete(fb.clients, id)
	}
}
