package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name   string
	logger *slog.Logger

	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Messages addressed to a single client
	direct chan directed

	// Mutex for client map (read-only access from outside)
	mu sync.RWMutex

	handler   Handler
	onConnect func(c *Client)
	onLeave   func(c *Client)

	running atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directed, 64),
		done:       make(chan struct{}),
	}
}

// OnMessage sets the handler for inbound client messages. Call before Run.
func (h *Hub) OnMessage(fn Handler) {
	h.handler = fn
}

// OnConnect sets a callback run after a client registers. Call before Run.
func (h *Hub) OnConnect(fn func(c *Client)) {
	h.onConnect = fn
}

// OnDisconnect sets a callback run after a client unregisters. Call before Run.
func (h *Hub) OnDisconnect(fn func(c *Client)) {
	h.onLeave = fn
}

// Run starts the hub's main loop
// This should be called in a goroutine
func (h *Hub) Run() {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "client", client.ID, "total", count)
			if h.onConnect != nil {
				h.onConnect(client)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if ok {
				h.logger.Info("client disconnected", "client", client.ID, "remaining", count)
				if h.onLeave != nil {
					h.onLeave(client)
				}
			}

		case d := <-h.direct:
			h.mu.Lock()
			if h.clients[d.client] {
				select {
				case d.client.send <- d.msg:
				default:
					h.logger.Warn("reply dropped, client buffer full", "client", d.client.ID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			var dropped []*Client
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full - they're too slow
					close(client.send)
					delete(h.clients, client)
					dropped = append(dropped, client)
				}
			}
			h.mu.Unlock()
			for _, client := range dropped {
				h.logger.Warn("dropped slow client", "client", client.ID)
				if h.onLeave != nil {
					h.onLeave(client)
				}
			}
		}
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

type directed struct {
	client *Client
	msg    Message
}

// SendTo queues a message for one client. Messages to departed clients are dropped.
func (h *Hub) SendTo(c *Client, msg Message) {
	select {
	case h.direct <- directed{client: c, msg: msg}:
	default:
		h.logger.Warn("direct channel full, dropping message", "client", c.ID)
	}
}

func (h *Hub) dispatch(c *Client, data []byte) {
	if h.handler != nil {
		h.handler(c, data)
	}
}
