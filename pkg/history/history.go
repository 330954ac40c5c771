// Package history defines the lookups validators make into previously accepted messages and
// reference data, and provides an in-memory implementation of them.
package history

import (
	"context"
	"fmt"

	"github.com/morezero/uftp-compliance/pkg/message"
)

// Messages looks up previously accepted messages. Lookups that find nothing return a nil
// payload and a nil error; errors are reserved for store failures. A reference with an empty
// conversation id matches regardless of conversation, for messages that point across conversations.
type Messages interface {
	FindPreviousMessage(ctx context.Context, ref message.MessageReference) (message.Payload, error)
	FindDuplicate(ctx context.Context, messageID, senderDomain, recipientDomain string) (message.Payload, error)
	ExistsRevocation(ctx context.Context, offerMessageID, recipientDomain string) (bool, error)
}

// Identifiers answers whether bare identifiers are known, without needing a full message.
type Identifiers interface {
	IsKnownCongestionPoint(ctx context.Context, id string) (bool, error)
	IsSupportedContractID(ctx context.Context, id string) (bool, error)
	IsValidBaselineReference(ctx context.Context, id string) (bool, error)
	// IsValidOrderReference reports whether a FlexOrder with this order reference was sent to the AGR domain.
	IsValidOrderReference(ctx context.Context, id, domain string) (bool, error)
}

// Participants answers who may send and who is served locally.
type Participants interface {
	IsHandledRecipient(ctx context.Context, p message.Participant) (bool, error)
	IsAllowedSender(ctx context.Context, p message.Participant) (bool, error)
}

// Reader is everything validation reads.
type Reader interface {
	Messages
	Identifiers
	Participants
}

// Store is a Reader that also persists accepted messages.
type Store interface {
	Reader
	// Save stores an accepted message. It returns false when a message with the same id,
	// sender domain and recipient domain is already stored; the first writer wins.
	Save(ctx context.Context, env message.Envelope) (bool, error)
	Ping(ctx context.Context) error
}

// ReferenceScope selects how a MessageReference is matched against stored messages.
type ReferenceScope string

const (
	// ScopeConversation matches message id, kind, domains and conversation id.
	ScopeConversation ReferenceScope = "conversation"
	// ScopeMessage matches message id, kind and domains, ignoring the conversation.
	ScopeMessage ReferenceScope = "message"
)

// ParseReferenceScope parses a scope name; the empty string selects ScopeConversation.
func ParseReferenceScope(s string) (ReferenceScope, error) {
	switch ReferenceScope(s) {
	case "", ScopeConversation:
		return ScopeConversation, nil
	case ScopeMessage:
		return ScopeMessage, nil
	}
	return "", fmt.Errorf("history:history - unknown reference scope %q", s)
}

// ParticipantEntry is a participant known to this deployment. Handled participants are the
// local domains this deployment receives messages for.
type ParticipantEntry struct {
	Domain  string       `yaml:"domain" json:"domain"`
	Role    message.Role `yaml:"role" json:"role"`
	Handled bool         `yaml:"handled" json:"handled"`
}

// ReferenceData is the static identifier data validators check against.
type ReferenceData struct {
	Participants       []ParticipantEntry `yaml:"participants" json:"participants"`
	CongestionPoints   []string           `yaml:"congestionPoints" json:"congestionPoints"`
	ContractIDs        []string           `yaml:"contractIds" json:"contractIds"`
	BaselineReferences []string           `yaml:"baselineReferences" json:"baselineReferences"`
}
