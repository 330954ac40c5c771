package compliance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/uftp-compliance/pkg/message"
)

const classifyLogPrefix = "compliance:classify"

// Classify reports whether the message id is new, a redelivery of the stored message, or
// reused by different content. Nothing is validated or stored.
func (s *Service) Classify(ctx context.Context, input *ClassifyInput) (*ClassifyOutput, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	env, serr := decodeEnvelope(message.Participant{}, message.Incoming, input.Kind, input.Payload)
	if serr != nil {
		return nil, serr
	}
	slog.Debug(fmt.Sprintf("%s - kind=%s id=%s", classifyLogPrefix, input.Kind, env.Payload.Head().MessageID))

	outcome, err := s.duplicates.Classify(ctx, env.Payload)
	if err != nil {
		return nil, s.internalError(env, "classify", err)
	}
	s.metrics.RecordClassification(string(input.Kind), outcome.String())
	return &ClassifyOutput{MessageID: env.Payload.Head().MessageID, Classification: outcome.String()}, nil
}
