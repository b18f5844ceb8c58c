package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/wavelength-chat/wavelength-backend/internal/service"
)

// Server-emitted event types.
const (
	EventOnlineUsers    = "onlineUsers"
	EventJoinGroupChat  = "joinGroupChat"
	EventStartTyping    = "startTyping"
	EventStopTyping     = "stopTyping"
	EventReceiveMessage = "receiveMessage"
)

// EventContext provides the dependencies event processing needs. UserID
// is the authenticated identity from the upgrade, not a client claim.
type EventContext struct {
	UserID         string
	Client         *ClientConnection
	Hub            *Hub
	ChatService    *service.ChatService
	MessageService *service.MessageService
}

// Event is a client-originated socket event.
type Event interface {
	GetType() string
	Process(ctx *EventContext) error
}

// SerializedEvent is the wire envelope for both directions.
type SerializedEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorFrame is sent when event processing fails. Socket failures are
// best-effort notices; the HTTP surface carries the real error contract.
type ErrorFrame struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Serialize wraps a payload in the typed envelope.
func Serialize(eventType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(SerializedEvent{Type: eventType, Payload: raw})
}

// Deserialize parses an envelope and instantiates the registered event
// type for it.
func Deserialize(jsonBytes []byte) (Event, error) {
	var wrapper SerializedEvent
	if err := json.Unmarshal(jsonBytes, &wrapper); err != nil {
		return nil, err
	}
	return createEvent(&wrapper)
}

func createEvent(wrapper *SerializedEvent) (Event, error) {
	eventType, ok := typeRegistry[wrapper.Type]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", wrapper.Type)
	}

	event := reflect.New(eventType).Interface().(Event)
	if len(wrapper.Payload) > 0 {
		if err := json.Unmarshal(wrapper.Payload, event); err != nil {
			return nil, err
		}
	}
	return event, nil
}

// SendError sends an error frame to the client.
func SendError(client *ClientConnection, code, message, details string) error {
	return client.WriteJSON(ErrorFrame{
		Type:    "error",
		Error:   message,
		Code:    code,
		Details: details,
	})
}
