// Package hub fans out gesture events to observer
// websocket clients using the channel-based broadcast pattern.
package hub

// Message is one JSON text frame queued for every observer
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded JSON
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}
