package validation

import (
	"context"
	"slices"

	"github.com/morezero/uftp-compliance/pkg/message"
)

func supportedVersion() Validator {
	return NewRule("SupportedVersion", PhaseBase, anyKind, "Unsupported UFTP version",
		func(_ context.Context, in *Input) (bool, error) {
			return in.Settings.IsSupportedVersion(in.Payload().Head().Version), nil
		})
}

func senderDomainMatches() Validator {
	return NewRule("SenderDomainMatches", PhaseBase, anyKind, "Invalid sender domain",
		func(_ context.Context, in *Input) (bool, error) {
			return in.Envelope.Sender.Domain == in.Payload().Head().SenderDomain, nil
		})
}

func knownSender() Validator {
	return NewRule("KnownSender", PhaseBase, anyKind, "Unknown sender",
		func(ctx context.Context, in *Input) (bool, error) {
			return in.History.IsAllowedSender(ctx, in.Envelope.Sender)
		})
}

func senderRole() Validator {
	return NewRule("SenderRole", PhaseBase, anyKind, "Invalid sender role",
		func(_ context.Context, in *Input) (bool, error) {
			return slices.Contains(message.AllowedSenderRoles(in.Payload().Kind()), in.Envelope.Sender.Role), nil
		})
}

// handledRecipient checks the recipient side. An incoming message must be addressed to a domain
// served here; an outgoing one must go to a known participant.
func handledRecipient() Validator {
	return NewRule("HandledRecipient", PhaseBase, anyKind, "Unknown recipient",
		func(ctx context.Context, in *Input) (bool, error) {
			p := in.Payload()
			recipient := message.Participant{
				Domain: p.Head().RecipientDomain,
				Role:   message.RecipientRole(p.Kind(), in.Envelope.Sender.Role),
			}
			if in.Envelope.Direction == message.Incoming {
				return in.History.IsHandledRecipient(ctx, recipient)
			}
			if recipient.Role != "" {
				return in.History.IsAllowedSender(ctx, recipient)
			}
			for _, role := range []message.Role{message.RoleAGR, message.RoleDSO, message.RoleCRO} {
				ok, err := in.History.IsAllowedSender(ctx, message.Participant{Domain: recipient.Domain, Role: role})
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		})
}
