package message

import "fmt"

// Direction tells whether a message is received by (Incoming) or sent from (Outgoing) the local participant.
type Direction string

const (
	Incoming Direction = "Incoming"
	Outgoing Direction = "Outgoing"
)

// Inverse returns the opposite direction.
func (d Direction) Inverse() Direction {
	if d == Outgoing {
		return Incoming
	}
	return Outgoing
}

// ParseDirection parses a direction name; the empty string means Incoming.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", Incoming:
		return Incoming, nil
	case Outgoing:
		return Outgoing, nil
	}
	return "", fmt.Errorf("message:envelope - unknown direction %q", s)
}

// Envelope is a payload together with the participant that sent it and the direction it travels.
type Envelope struct {
	Sender    Participant
	Direction Direction
	Payload   Payload
}

// MessageReference identifies a prior message a new message claims to relate to. It is a lookup
// key; resolving it is up to the history store.
type MessageReference struct {
	MessageID       string    `json:"messageId"`
	ConversationID  string    `json:"conversationId"`
	Kind            Kind      `json:"kind"`
	Direction       Direction `json:"direction"`
	SenderDomain    string    `json:"senderDomain"`
	RecipientDomain string    `json:"recipientDomain"`
}

func (r MessageReference) String() string {
	return fmt.Sprintf("%s %s (conversation %s, %s -> %s, %s)",
		r.Kind, r.MessageID, r.ConversationID, r.SenderDomain, r.RecipientDomain, r.Direction)
}

// ReferenceToCounterparty builds a reference to a message of kind k that the counterparty of this
// envelope sent earlier in the same conversation: the direction is inverted and the domains swap.
func (e Envelope) ReferenceToCounterparty(messageID string, k Kind) MessageReference {
	h := e.Payload.Head()
	return MessageReference{
		MessageID:       messageID,
		ConversationID:  h.ConversationID,
		Kind:            k,
		Direction:       e.Direction.Inverse(),
		SenderDomain:    h.RecipientDomain,
		RecipientDomain: h.SenderDomain,
	}
}

// ReferenceToOwn builds a reference to a message of kind k the sender of this envelope sent earlier
// to the same recipient.
func (e Envelope) ReferenceToOwn(messageID string, k Kind) MessageReference {
	h := e.Payload.Head()
	return MessageReference{
		MessageID:       messageID,
		ConversationID:  h.ConversationID,
		Kind:            k,
		Direction:       e.Direction,
		SenderDomain:    h.SenderDomain,
		RecipientDomain: h.RecipientDomain,
	}
}

// RequestReference returns the id of the request a response answers, with the field name UFTP
// gives it. TestMessageResponse and non-response kinds return ok=false.
func RequestReference(p Payload) (field, messageID string, ok bool) {
	switch m := p.(type) {
	case *FlexRequestResponse:
		return "FlexRequestMessageID", m.FlexRequestMessageID, true
	case *FlexOfferResponse:
		return "FlexOfferMessageID", m.FlexOfferMessageID, true
	case *FlexOfferRevocationResponse:
		return "FlexOfferRevocationMessageID", m.FlexOfferRevocationMessageID, true
	case *FlexOrderResponse:
		return "FlexOrderMessageID", m.FlexOrderMessageID, true
	case *FlexReservationUpdateResponse:
		return "FlexReservationUpdateMessageID", m.FlexReservationUpdateMessageID, true
	case *DPrognosisResponse:
		return "D-PrognosisMessageID", m.DPrognosisMessageID, true
	case *MeteringResponse:
		return "MeteringMessageID", m.MeteringMessageID, true
	case *FlexSettlementResponse:
		return "FlexSettlementMessageID", m.FlexSettlementMessageID, true
	case *AGRPortfolioQueryResponse:
		return "AGRPortfolioQueryMessageID", m.AGRPortfolioQueryMessageID, true
	case *AGRPortfolioUpdateResponse:
		return "AGRPortfolioUpdateMessageID", m.AGRPortfolioUpdateMessageID, true
	case *DSOPortfolioQueryResponse:
		return "DSOPortfolioQueryMessageID", m.DSOPortfolioQueryMessageID, true
	case *DSOPortfolioUpdateResponse:
		return "DSOPortfolioUpdateMessageID", m.DSOPortfolioUpdateMessageID, true
	}
	return "", "", false
}
