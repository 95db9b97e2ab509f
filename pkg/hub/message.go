// Package hub fans out messages to websocket clients over per-client
// buffered channels and hands inbound client messages to a single handler.
package hub

// Message is a pre-encoded JSON text frame queued for delivery to clients
type Message struct {
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// Handler receives inbound client messages. Replies sent through the client
// reach only that client; Broadcast reaches everyone.
type Handler func(c *Client, data []byte)
