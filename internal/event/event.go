// Package event defines the live-channel wire format shared by the
// websocket transport and the delivery service.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Client → Server
const (
	TypeJoinConversation  = "join_conversation"
	TypeLeaveConversation = "leave_conversation"
	TypeNewMessage        = "new_message"
	TypeMessageRead       = "message_read"
	TypeTypingStart       = "typing_start"
	TypePing              = "ping"
)

// Server → Client
const (
	TypeConnectionSuccess       = "connection_success"
	TypeJoinSuccess             = "join_success"
	TypeLeaveSuccess            = "leave_success"
	TypeReceiveMessage          = "receive_message"
	TypeMessageReadConfirmation = "message_read_confirmation"
	TypeReadSuccess             = "read_success"
	TypeTyping                  = "typing"
	TypePong                    = "pong"
	TypeError                   = "error"
)

// Event is the envelope for every frame in either direction.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---
//
// Ids arrive as strings so a malformed id is reported as a validation error
// instead of failing the whole frame.

type ConversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

type NewMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

type MessageReadPayload struct {
	MessageID string `json:"message_id"`
}

// --- Server → Client payloads ---

type StatusPayload struct {
	Message string `json:"message"`
}

type RoomPayload struct {
	Message        string    `json:"message"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type ReceiveMessagePayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Text           string    `json:"texto"`
	SentAt         time.Time `json:"data_envio"`
	SenderID       uuid.UUID `json:"remetente_id"`
}

type ReadConfirmationPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	ViewedAt  time.Time `json:"data_visualizacao"`
}

type ReadSuccessPayload struct {
	Message   string    `json:"message"`
	MessageID uuid.UUID `json:"message_id"`
}

type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}

type ErrorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// New creates a server→client event with the current timestamp.
func New(eventType string, payload any) (*Event, error) {
	evt := &Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		evt.Payload = data
	}
	return evt, nil
}

// Encode builds an event and marshals the envelope in one step.
func Encode(eventType string, payload any) ([]byte, error) {
	evt, err := New(eventType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(evt)
}
