// Package events defines the validation event type and its publishers.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/morezero/uftp-compliance/pkg/message"
)

// ValidationCompletedEvent is emitted once per validated message.
type ValidationCompletedEvent struct {
	EventID         string `json:"eventId"`
	MessageID       string `json:"messageId"`
	ConversationID  string `json:"conversationId,omitempty"`
	Kind            string `json:"kind"`
	Direction       string `json:"direction"`
	SenderDomain    string `json:"senderDomain"`
	RecipientDomain string `json:"recipientDomain"`
	Outcome         string `json:"outcome"`
	Reason          string `json:"reason,omitempty"`
	Validator       string `json:"validator,omitempty"`
	Persisted       bool   `json:"persisted"`
	Timestamp       string `json:"timestamp"`
}

// NewValidationCompletedEvent builds an event for env with a fresh event id, stamped at now.
func NewValidationCompletedEvent(env message.Envelope, outcome string, now time.Time) *ValidationCompletedEvent {
	h := env.Payload.Head()
	direction := env.Direction
	if direction == "" {
		direction = message.Incoming
	}
	return &ValidationCompletedEvent{
		EventID:         uuid.NewString(),
		MessageID:       h.MessageID,
		ConversationID:  h.ConversationID,
		Kind:            string(env.Payload.Kind()),
		Direction:       string(direction),
		SenderDomain:    h.SenderDomain,
		RecipientDomain: h.RecipientDomain,
		Outcome:         outcome,
		Timestamp:       now.UTC().Format(time.RFC3339Nano),
	}
}
