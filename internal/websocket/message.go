package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dom/bracket-sync/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypeSubscribe MessageType = "SUBSCRIBE"
	MessageTypePing      MessageType = "PING"

	// Server to Client
	MessageTypeSetsLoaded   MessageType = "SETS_LOADED"
	MessageTypeSetUpdated   MessageType = "SET_UPDATED"
	MessageTypeSetSaved     MessageType = "SET_SAVED"
	MessageTypeSetSubmitted MessageType = "SET_SUBMITTED"
	MessageTypePong         MessageType = "PONG"
	MessageTypeError        MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

// SubscribePayload narrows set messages to the listed sets. An empty list
// subscribes to every set.
type SubscribePayload struct {
	SetIDs []string `json:"setIds"`
}

// Server to Client payloads

type SetsLoadedPayload struct {
	EventID string        `json:"eventId"`
	Sets    []*domain.Set `json:"sets"`
}

type SetPayload struct {
	Set *domain.Set `json:"set"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	SetID   string `json:"setId,omitempty"`
}

// ErrorCode classifies err for clients.
func ErrorCode(err error) string {
	switch {
	case domain.IsValidation(err):
		return "VALIDATION_FAILED"
	case errors.Is(err, domain.ErrWriteInProgress):
		return "WRITE_IN_PROGRESS"
	case errors.Is(err, domain.ErrStaleResponse):
		return "STALE_RESPONSE"
	case errors.Is(err, domain.ErrSetNotFound):
		return "SET_NOT_FOUND"
	case domain.IsNetwork(err):
		return "NETWORK_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
