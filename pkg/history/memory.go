package history

import (
	"context"
	"sync"

	"github.com/morezero/uftp-compliance/pkg/message"
)

type identityKey struct {
	messageID       string
	senderDomain    string
	recipientDomain string
}

type storedMessage struct {
	direction message.Direction
	payload   message.Payload
}

// MemoryStore is a Store held in process memory. It backs tests and single-node deployments
// that do not need history to survive a restart.
type MemoryStore struct {
	scope ReferenceScope

	mu       sync.RWMutex
	messages map[identityKey]storedMessage

	participants     []ParticipantEntry
	congestionPoints map[string]bool
	contractIDs      map[string]bool
	baselines        map[string]bool
}

// NewMemoryStore creates a MemoryStore seeded with reference data.
func NewMemoryStore(scope ReferenceScope, data ReferenceData) *MemoryStore {
	if scope == "" {
		scope = ScopeConversation
	}
	return &MemoryStore{
		scope:            scope,
		messages:         make(map[identityKey]storedMessage),
		participants:     append([]ParticipantEntry(nil), data.Participants...),
		congestionPoints: toSet(data.CongestionPoints),
		contractIDs:      toSet(data.ContractIDs),
		baselines:        toSet(data.BaselineReferences),
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, env message.Envelope) (bool, error) {
	h := env.Payload.Head()
	key := identityKey{messageID: h.MessageID, senderDomain: h.SenderDomain, recipientDomain: h.RecipientDomain}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.messages[key]; exists {
		return false, nil
	}
	s.messages[key] = storedMessage{direction: env.Direction, payload: env.Payload}
	return true, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// FindPreviousMessage implements Messages.
func (s *MemoryStore) FindPreviousMessage(_ context.Context, ref message.MessageReference) (message.Payload, error) {
	key := identityKey{messageID: ref.MessageID, senderDomain: ref.SenderDomain, recipientDomain: ref.RecipientDomain}

	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.messages[key]
	if !ok {
		return nil, nil
	}
	if stored.payload.Kind() != ref.Kind || stored.direction != ref.Direction {
		return nil, nil
	}
	if s.scope == ScopeConversation && ref.ConversationID != "" && stored.payload.Head().ConversationID != ref.ConversationID {
		return nil, nil
	}
	return stored.payload, nil
}

// FindDuplicate implements Messages.
func (s *MemoryStore) FindDuplicate(_ context.Context, messageID, senderDomain, recipientDomain string) (message.Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.messages[identityKey{messageID: messageID, senderDomain: senderDomain, recipientDomain: recipientDomain}]
	if !ok {
		return nil, nil
	}
	return stored.payload, nil
}

// ExistsRevocation implements Messages.
func (s *MemoryStore) ExistsRevocation(_ context.Context, offerMessageID, recipientDomain string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.messages {
		rev, ok := stored.payload.(*message.FlexOfferRevocation)
		if ok && rev.FlexOfferMessageID == offerMessageID && rev.RecipientDomain == recipientDomain {
			return true, nil
		}
	}
	return false, nil
}

// IsKnownCongestionPoint implements Identifiers.
func (s *MemoryStore) IsKnownCongestionPoint(_ context.Context, id string) (bool, error) {
	return s.congestionPoints[id], nil
}

// IsSupportedContractID implements Identifiers.
func (s *MemoryStore) IsSupportedContractID(_ context.Context, id string) (bool, error) {
	return s.contractIDs[id], nil
}

// IsValidBaselineReference implements Identifiers.
func (s *MemoryStore) IsValidBaselineReference(_ context.Context, id string) (bool, error) {
	return s.baselines[id], nil
}

// IsValidOrderReference implements Identifiers.
func (s *MemoryStore) IsValidOrderReference(_ context.Context, id, domain string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stored := range s.messages {
		order, ok := stored.payload.(*message.FlexOrder)
		if ok && order.OrderReference == id && order.RecipientDomain == domain {
			return true, nil
		}
	}
	return false, nil
}

// IsHandledRecipient implements Participants. An empty role matches any role.
func (s *MemoryStore) IsHandledRecipient(_ context.Context, p message.Participant) (bool, error) {
	for _, e := range s.participants {
		if e.Handled && e.Domain == p.Domain && (p.Role == "" || e.Role == p.Role) {
			return true, nil
		}
	}
	return false, nil
}

// IsAllowedSender implements Participants.
func (s *MemoryStore) IsAllowedSender(_ context.Context, p message.Participant) (bool, error) {
	for _, e := range s.participants {
		if e.Domain == p.Domain && e.Role == p.Role {
			return true, nil
		}
	}
	return false, nil
}
