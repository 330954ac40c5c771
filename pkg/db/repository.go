package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
)

const repoLogPrefix = "db:repository"

// Repository is the Postgres history.Store.
type Repository struct {
	pool  *pgxpool.Pool
	scope history.ReferenceScope
}

// NewRepository creates a Repository. scope selects how references match stored conversations.
func NewRepository(pool *pgxpool.Pool, scope history.ReferenceScope) *Repository {
	if scope == "" {
		scope = history.ScopeConversation
	}
	return &Repository{pool: pool, scope: scope}
}

// =========================================================================
// MESSAGES
// =========================================================================

// Save stores an accepted message. The unique identity constraint decides concurrent
// deliveries of the same id: exactly one insert succeeds.
func (r *Repository) Save(ctx context.Context, env message.Envelope) (bool, error) {
	rec, err := recordOf(env)
	if err != nil {
		return false, err
	}

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO uftp_messages (message_id, conversation_id, kind, direction, sender_domain,
		                            recipient_domain, sender_role, order_reference, revoked_offer_id, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT ON CONSTRAINT uftp_messages_identity DO NOTHING`,
		rec.MessageID, rec.ConversationID, rec.Kind, rec.Direction, rec.SenderDomain,
		rec.RecipientDomain, rec.SenderRole, rec.OrderReference, rec.RevokedOfferID, rec.Payload)
	if err != nil {
		return false, fmt.Errorf("%s - Save %s %s failed: %w", repoLogPrefix, rec.Kind, rec.MessageID, err)
	}

	inserted := tag.RowsAffected() == 1
	slog.Debug(fmt.Sprintf("%s - Save %s %s inserted=%v", repoLogPrefix, rec.Kind, rec.MessageID, inserted))
	return inserted, nil
}

// FindPreviousMessage implements history.Messages.
func (r *Repository) FindPreviousMessage(ctx context.Context, ref message.MessageReference) (message.Payload, error) {
	slog.Debug(fmt.Sprintf("%s - FindPreviousMessage %s", repoLogPrefix, ref))

	conversation := ref.ConversationID
	if r.scope == history.ScopeMessage {
		conversation = ""
	}

	row := r.pool.QueryRow(ctx,
		`SELECT id, message_id, conversation_id, kind, direction, sender_domain, recipient_domain,
		        sender_role, order_reference, revoked_offer_id, payload, created
		 FROM uftp_messages
		 WHERE message_id = $1 AND sender_domain = $2 AND recipient_domain = $3
		   AND kind = $4 AND direction = $5
		   AND ($6 = '' OR conversation_id = $6)
		 LIMIT 1`,
		ref.MessageID, ref.SenderDomain, ref.RecipientDomain, string(ref.Kind), string(ref.Direction), conversation)

	return scanPayload(row)
}

// FindDuplicate implements history.Messages.
func (r *Repository) FindDuplicate(ctx context.Context, messageID, senderDomain, recipientDomain string) (message.Payload, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, message_id, conversation_id, kind, direction, sender_domain, recipient_domain,
		        sender_role, order_reference, revoked_offer_id, payload, created
		 FROM uftp_messages
		 WHERE message_id = $1 AND sender_domain = $2 AND recipient_domain = $3
		 LIMIT 1`, messageID, senderDomain, recipientDomain)

	return scanPayload(row)
}

// ExistsRevocation implements history.Messages.
func (r *Repository) ExistsRevocation(ctx context.Context, offerMessageID, recipientDomain string) (bool, error) {
	return r.exists(ctx, "ExistsRevocation",
		`SELECT EXISTS (SELECT 1 FROM uftp_messages
		                WHERE kind = 'FlexOfferRevocation' AND revoked_offer_id = $1 AND recipient_domain = $2)`,
		offerMessageID, recipientDomain)
}

// ListConversation returns the stored messages of a conversation in insertion order.
func (r *Repository) ListConversation(ctx context.Context, conversationID string) ([]MessageRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, message_id, conversation_id, kind, direction, sender_domain, recipient_domain,
		        sender_role, order_reference, revoked_offer_id, payload, created
		 FROM uftp_messages
		 WHERE conversation_id = $1
		 ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%s - ListConversation failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var records []MessageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - ListConversation rows failed: %w", repoLogPrefix, err)
	}
	return records, nil
}

// =========================================================================
// IDENTIFIERS
// =========================================================================

// IsKnownCongestionPoint implements history.Identifiers.
func (r *Repository) IsKnownCongestionPoint(ctx context.Context, id string) (bool, error) {
	return r.identifierExists(ctx, IdentifierCongestionPoint, id)
}

// IsSupportedContractID implements history.Identifiers.
func (r *Repository) IsSupportedContractID(ctx context.Context, id string) (bool, error) {
	return r.identifierExists(ctx, IdentifierContract, id)
}

// IsValidBaselineReference implements history.Identifiers.
func (r *Repository) IsValidBaselineReference(ctx context.Context, id string) (bool, error) {
	return r.identifierExists(ctx, IdentifierBaseline, id)
}

// IsValidOrderReference implements history.Identifiers.
func (r *Repository) IsValidOrderReference(ctx context.Context, id, domain string) (bool, error) {
	return r.exists(ctx, "IsValidOrderReference",
		`SELECT EXISTS (SELECT 1 FROM uftp_messages
		                WHERE kind = 'FlexOrder' AND order_reference = $1 AND recipient_domain = $2)`,
		id, domain)
}

func (r *Repository) identifierExists(ctx context.Context, kind, value string) (bool, error) {
	return r.exists(ctx, "identifier "+kind,
		`SELECT EXISTS (SELECT 1 FROM uftp_identifiers WHERE kind = $1 AND value = $2)`, kind, value)
}

// =========================================================================
// PARTICIPANTS
// =========================================================================

// IsHandledRecipient implements history.Participants. An empty role matches any role.
func (r *Repository) IsHandledRecipient(ctx context.Context, p message.Participant) (bool, error) {
	return r.exists(ctx, "IsHandledRecipient",
		`SELECT EXISTS (SELECT 1 FROM uftp_participants
		                WHERE domain = $1 AND ($2 = '' OR role = $2) AND handled)`,
		p.Domain, string(p.Role))
}

// IsAllowedSender implements history.Participants.
func (r *Repository) IsAllowedSender(ctx context.Context, p message.Participant) (bool, error) {
	return r.exists(ctx, "IsAllowedSender",
		`SELECT EXISTS (SELECT 1 FROM uftp_participants WHERE domain = $1 AND role = $2)`,
		p.Domain, string(p.Role))
}

// Ping implements history.Store.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) exists(ctx context.Context, op, query string, args ...any) (bool, error) {
	var found bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("%s - %s failed: %w", repoLogPrefix, op, err)
	}
	return found, nil
}

// =========================================================================
// SCAN HELPERS
// =========================================================================

func scanRecord(row pgx.Row) (*MessageRecord, error) {
	var m MessageRecord
	err := row.Scan(
		&m.ID, &m.MessageID, &m.ConversationID, &m.Kind, &m.Direction, &m.SenderDomain, &m.RecipientDomain,
		&m.SenderRole, &m.OrderReference, &m.RevokedOfferID, &m.Payload, &m.Created,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan message failed: %w", repoLogPrefix, err)
	}
	return &m, nil
}

func scanPayload(row pgx.Row) (message.Payload, error) {
	rec, err := scanRecord(row)
	if err != nil || rec == nil {
		return nil, err
	}
	p, err := rec.Decode()
	if err != nil {
		return nil, fmt.Errorf("%s - decode stored %s %s: %w", repoLogPrefix, rec.Kind, rec.MessageID, err)
	}
	return p, nil
}

var _ history.Store = (*Repository)(nil)
