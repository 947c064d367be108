package protocol

import (
	"github.com/teslashibe/go-facecount/pkg/facemesh"
	"github.com/teslashibe/go-facecount/pkg/gesture"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewStartMessage creates a start message
func NewStartMessage(deviceID string) (*Message, error) {
	return NewMessage(TypeStart, StartData{DeviceID: deviceID})
}

// NewStopMessage creates a stop message
func NewStopMessage() (*Message, error) {
	return NewMessage(TypeStop, nil)
}

// NewResultsMessage creates a results message. No faces means no detection.
func NewResultsMessage(faces ...facemesh.Landmarks) (*Message, error) {
	return NewMessage(TypeResults, ResultsData{Faces: faces})
}

// NewConfigMessage creates a configuration update message
func NewConfigMessage(cfg ConfigData) (*Message, error) {
	return NewMessage(TypeConfig, cfg)
}

// NewHelloMessage creates the per-connection hello message
func NewHelloMessage(hello HelloData) (*Message, error) {
	return NewMessage(TypeHello, hello)
}

// NewStatusMessage creates a status message
func NewStatusMessage(status StatusData) (*Message, error) {
	return NewMessage(TypeStatus, status)
}

// NewCountMessage creates a count message from a gesture event
func NewCountMessage(ev gesture.Event) (*Message, error) {
	return NewMessage(TypeCount, CountData{Kind: ev.Kind, Count: ev.Count})
}

// NewOverlayMessage creates an overlay message
func NewOverlayMessage(points facemesh.Landmarks, mirror bool, seq uint64) (*Message, error) {
	return NewMessage(TypeOverlay, OverlayData{Points: points, Mirror: mirror, Seq: seq})
}

// NewErrorMessage creates an error message
func NewErrorMessage(msg string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: msg})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetStartData extracts start data from a message
func (m *Message) GetStartData() (*StartData, error) {
	var data StartData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetResultsData extracts inference results from a message
func (m *Message) GetResultsData() (*ResultsData, error) {
	var data ResultsData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetConfigData extracts a configuration update from a message
func (m *Message) GetConfigData() (*ConfigData, error) {
	var data ConfigData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCameraErrorData extracts a camera error report from a message
func (m *Message) GetCameraErrorData() (*CameraErrorData, error) {
	var data CameraErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetHelloData extracts hello data from a message
func (m *Message) GetHelloData() (*HelloData, error) {
	var data HelloData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCountData extracts count data from a message
func (m *Message) GetCountData() (*CountData, error) {
	var data CountData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetOverlayData extracts overlay data from a message
func (m *Message) GetOverlayData() (*OverlayData, error) {
	var data OverlayData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
