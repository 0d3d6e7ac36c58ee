package daemon

import (
	"encoding/json"
	"time"

	"github.com/fpokrzywa/weaver-live/cli/modules/core/navigation"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/eventbus"
	"github.com/fpokrzywa/weaver-live/cli/modules/ui/widgets"
)

// MessageType identifies the type of message on the /ws stream. Bus events
// are sent as-is and carry their event type instead.
type MessageType string

const (
	// Client -> Server
	MsgIntent     MessageType = "intent"      // Navigation intent for the caller's page
	MsgSubscribe  MessageType = "subscribe"   // Restrict pushed events to some types
	MsgGetState   MessageType = "get_state"   // Request the page view
	MsgGetHistory MessageType = "get_history" // Request recent navigation events
	MsgPing       MessageType = "ping"        // Keepalive

	// Server -> Client
	MsgState   MessageType = "state"
	MsgHistory MessageType = "history"
	MsgPong    MessageType = "pong"
	MsgError   MessageType = "error"
)

// Message is the envelope for protocol messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewMessage creates a new message with the given type and payload
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var data json.RawMessage
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}

// Decode decodes the payload into the given target
func (m *Message) Decode(target interface{}) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(m.Payload, target)
}

// Encode serializes a message to JSON
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage deserializes a message from JSON
func DecodeMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// IntentPayload is the payload of MsgIntent
type IntentPayload = navigation.Intent

// StatePayload is the payload of MsgState
type StatePayload = widgets.PageView

// SubscribePayload contains subscription options
type SubscribePayload struct {
	Types []eventbus.EventType `json:"types,omitempty"` // Empty = all events
}

// HistoryRequest is the payload of MsgGetHistory
type HistoryRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HistoryPayload is the payload of MsgHistory
type HistoryPayload struct {
	Events []*eventbus.Event `json:"events"`
}

// PongPayload is the payload of MsgPong
type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// ErrorPayload contains an error message
type ErrorPayload struct {
	Message string `json:"message"`
}
