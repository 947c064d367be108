// Package protocol defines the WebSocket message types exchanged between the
// browser client and the gesture counting service.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Client → Service messages
	TypeStart       MessageType = "start"        // Camera stream acquired, begin a session
	TypeStop        MessageType = "stop"         // Camera stream released
	TypeResults     MessageType = "results"      // One inference callback
	TypeConfig      MessageType = "config"       // Sensitivity, mirror or device change
	TypeCameraError MessageType = "camera_error" // Camera acquisition failed on the client

	// Service → Client messages
	TypeHello   MessageType = "hello"   // Session created, engine options
	TypeStatus  MessageType = "status"  // Per-frame status text and metrics
	TypeCount   MessageType = "count"   // Confirmed gesture
	TypeOverlay MessageType = "overlay" // Landmark points to paint
	TypeError   MessageType = "error"   // Request could not be handled

	// Bidirectional
	TypePing MessageType = "ping"
	TypePong MessageType = "pong"
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Client → Service Message Types
// =============================================================================

// StartData asks for a session on the given camera device
type StartData struct {
	DeviceID string `json:"device_id,omitempty"` // Empty selects the default user-facing camera
}

// ResultsData carries one inference callback. Faces is empty when no face was
// detected; Error is set when the engine failed on this frame.
type ResultsData struct {
	Faces []facemesh.Landmarks `json:"faces,omitempty"`
	Error string               `json:"error,omitempty"`
}

// ConfigData changes live session settings. Nil fields are left unchanged.
type ConfigData struct {
	Sensitivity *float64 `json:"sensitivity,omitempty"` // 0-100, 50 is neutral
	Mirror      *bool    `json:"mirror,omitempty"`
	DeviceID    *string  `json:"device_id,omitempty"`
}

// CameraErrorData reports a failed camera acquisition
type CameraErrorData struct {
	DeviceID string `json:"device_id,omitempty"`
	Message  string `json:"message"`
}

// =============================================================================
// Service → Client Message Types
// =============================================================================

// HelloData is sent once per connection
type HelloData struct {
	SessionID   string                    `json:"session_id"`
	Inference   facemesh.InferenceOptions `json:"inference"`
	Sensitivity float64                   `json:"sensitivity"`
	Mirror      bool                      `json:"mirror"`
	Counts      gesture.Counts            `json:"counts"`
}

// StatusData is the per-frame status line
type StatusData struct {
	Text    string  `json:"text"`
	Running bool    `json:"running"`
	Face    bool    `json:"face"`
	EAR     float64 `json:"ear,omitempty"`
	MAR     float64 `json:"mar,omitempty"`
	Gap     float64 `json:"gap,omitempty"`
	FPS     float64 `json:"fps,omitempty"`
	FPSBar  float64 `json:"fps_bar,omitempty"` // 0-100, relative to 60 fps
	Warmup  int     `json:"warmup,omitempty"`  // Baseline frames still to learn
}

// CountData announces one confirmed gesture
type CountData struct {
	Kind  gesture.Kind `json:"kind"`
	Count int          `json:"count"`
}

// OverlayData holds the landmark points of the latest frame, already mirrored
// when mirroring is on
type OverlayData struct {
	Points facemesh.Landmarks `json:"points"`
	Mirror bool               `json:"mirror"`
	Seq    uint64             `json:"seq"`
}

// ErrorData describes a rejected request
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
