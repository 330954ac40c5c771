package db

import (
	"fmt"
	"time"

	"github.com/morezero/uftp-compliance/pkg/message"
)

// MessageRecord represents a row in the uftp_messages table.
type MessageRecord struct {
	ID              int64     `json:"id"`
	MessageID       string    `json:"message_id"`
	ConversationID  string    `json:"conversation_id"`
	Kind            string    `json:"kind"`
	Direction       string    `json:"direction"`
	SenderDomain    string    `json:"sender_domain"`
	RecipientDomain string    `json:"recipient_domain"`
	SenderRole      string    `json:"sender_role"`
	OrderReference  *string   `json:"order_reference,omitempty"`
	RevokedOfferID  *string   `json:"revoked_offer_id,omitempty"`
	Payload         []byte    `json:"payload"`
	Created         time.Time `json:"created"`
}

// Decode returns the stored payload as a message.
func (r *MessageRecord) Decode() (message.Payload, error) {
	return message.Decode(message.Kind(r.Kind), r.Payload)
}

// ParticipantRecord represents a row in the uftp_participants table.
type ParticipantRecord struct {
	Domain   string    `json:"domain"`
	Role     string    `json:"role"`
	Handled  bool      `json:"handled"`
	Modified time.Time `json:"modified"`
}

// Identifier kinds stored in uftp_identifiers.
const (
	IdentifierCongestionPoint = "congestion_point"
	IdentifierContract        = "contract"
	IdentifierBaseline        = "baseline"
)

// recordOf flattens an envelope into the columns the lookups filter on.
func recordOf(env message.Envelope) (MessageRecord, error) {
	if env.Payload == nil {
		return MessageRecord{}, fmt.Errorf("%s - envelope has no payload", repoLogPrefix)
	}
	payload, err := message.Encode(env.Payload)
	if err != nil {
		return MessageRecord{}, err
	}

	h := env.Payload.Head()
	direction := env.Direction
	if direction == "" {
		direction = message.Incoming
	}
	rec := MessageRecord{
		MessageID:       h.MessageID,
		ConversationID:  h.ConversationID,
		Kind:            string(env.Payload.Kind()),
		Direction:       string(direction),
		SenderDomain:    h.SenderDomain,
		RecipientDomain: h.RecipientDomain,
		SenderRole:      string(env.Sender.Role),
		Payload:         payload,
	}

	switch m := env.Payload.(type) {
	case *message.FlexOrder:
		rec.OrderReference = &m.OrderReference
	case *message.FlexOfferRevocation:
		rec.RevokedOfferID = &m.FlexOfferMessageID
	}
	return rec, nil
}
