package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/uftp-compliance/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// Header keys set on every published validation event.
const (
	HeaderOutcome        = "Uftp-Outcome"
	HeaderKind           = "Uftp-Kind"
	HeaderConversationID = "Uftp-Conversation-Id"
)

// CommsPublisherOpts configures CommsPublisher. Nil or zero values use defaults.
type CommsPublisherOpts struct {
	// EventSubject replaces uftp.validated as the catch-all subject (UFTP_EVENT_SUBJECT).
	EventSubject string
}

// CommsPublisher publishes each validation event twice: on uftp.validated.<outcome>.<kind> and on
// the catch-all event subject. The event id doubles as Nats-Msg-Id so a JetStream stream bound to
// these subjects drops replays.
type CommsPublisher struct {
	nc       *comms.Conn
	catchAll string
}

func NewCommsPublisher(nc *comms.Conn, opts *CommsPublisherOpts) *CommsPublisher {
	p := &CommsPublisher{nc: nc, catchAll: commsutil.SubjectValidationEvent}
	if opts != nil && opts.EventSubject != "" {
		p.catchAll = opts.EventSubject
	}
	return p
}

// PublishValidated implements EventPublisher.
func (p *CommsPublisher) PublishValidated(ctx context.Context, event *ValidationCompletedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event: %w", commsPublisherLogPrefix, err)
	}

	for _, subject := range []string{commsutil.BuildOutcomeSubject(event.Outcome, event.Kind), p.catchAll} {
		msg := comms.NewMsg(subject)
		msg.Data = data
		msg.Header.Set(comms.MsgIdHdr, event.EventID)
		msg.Header.Set(HeaderOutcome, event.Outcome)
		msg.Header.Set(HeaderKind, event.Kind)
		if event.ConversationID != "" {
			msg.Header.Set(HeaderConversationID, event.ConversationID)
		}
		if err := p.nc.PublishMsg(msg); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
			return fmt.Errorf("%s - publish %s: %w", commsPublisherLogPrefix, subject, err)
		}
	}

	slog.Debug(fmt.Sprintf("%s - %s %s %s", commsPublisherLogPrefix, event.Outcome, event.Kind, event.MessageID))
	return nil
}
