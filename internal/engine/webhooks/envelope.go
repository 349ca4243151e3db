package webhooks

import (
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire payload for one delivery attempt. It is built fresh
// per attempt and never persisted. CreatedAt is shared across every
// delivery of the same dispatch call; ID is unique per attempt.
type Envelope struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	CreatedAt string      `json:"created_at"`
	Data      interface{} `json:"data"`
}

// NewEnvelope builds an envelope with a fresh delivery id. createdAt is
// formatted as RFC 3339 in UTC.
func NewEnvelope(event Event, createdAt time.Time, data interface{}) *Envelope {
	return &Envelope{
		ID:        "dlv_" + uuid.New().String(),
		Event:     string(event),
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
		Data:      data,
	}
}
