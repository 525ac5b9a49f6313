// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents the realtime events pushed by the upstream socket.
type EventType string

const (
	// Connection events
	EventTypeConnect    EventType = "connect"
	EventTypeDisconnect EventType = "disconnect"
	EventTypePing       EventType = "ping"
	EventTypePong       EventType = "pong"
	EventTypeError      EventType = "error"

	// Session events
	EventTypeRefreshToken EventType = "refresh-token"

	// Restaurant events (server -> client)
	EventTypeNewOrder     EventType = "new-order"
	EventTypeUpdateOrder  EventType = "update-order"
	EventTypePayment      EventType = "payment"
	EventTypeTableChanged EventType = "table-changed"
	EventTypeDishChanged  EventType = "dish-changed"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	ID        string          `json:"id,omitempty"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OrderEventData is the part of an order event the console shows.
type OrderEventData struct {
	ID          int64  `json:"id"`
	GuestName   string `json:"guestName,omitempty"`
	TableNumber int    `json:"tableNumber,omitempty"`
	DishName    string `json:"dishName,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) (*WSMessage, error) {
	msg := &WSMessage{
		Type:      eventType,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return msg, nil
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeData unmarshals the payload into v.
func (m *WSMessage) DecodeData(v interface{}) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
