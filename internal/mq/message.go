package mq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is a queue delivery.
// Body is exactly what the sender passed in; ID and EnqueuedAt are transport framing
// assigned by the broker, never part of the payload.
type Message struct {
	// ID is a unique identifier for this delivery
	ID string `json:"id"`

	// Queue is the queue the message was sent to
	Queue string `json:"queue"`

	// Body is the opaque payload
	Body []byte `json:"body"`

	// EnqueuedAt is when the broker accepted the message
	EnqueuedAt time.Time `json:"enqueued_at"`

	// raw is the encoded form as stored by the transport, used to acknowledge it
	raw string
}

// NewMessage creates a new message for queue carrying body
func NewMessage(queue string, body []byte) *Message {
	return &Message{
		ID:         uuid.New().String(),
		Queue:      queue,
		Body:       body,
		EnqueuedAt: time.Now(),
	}
}

// encode serializes the message for transports that store bytes
func (m *Message) encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeMessage is the inverse of encode; the raw form is retained for acknowledgement
func decodeMessage(raw string) (*Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, err
	}
	msg.raw = raw
	return &msg, nil
}
