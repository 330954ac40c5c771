package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/uftp-compliance/pkg/events"
	"github.com/morezero/uftp-compliance/pkg/message"
	"github.com/morezero/uftp-compliance/pkg/metrics"
	"github.com/morezero/uftp-compliance/pkg/validation"
)

const validateLogPrefix = "compliance:validate"

// decodeEnvelope checks the transport input and decodes the payload of the declared kind.
func decodeEnvelope(sender message.Participant, direction message.Direction, kind message.Kind, payload []byte) (message.Envelope, *ServiceError) {
	if !kind.Valid() {
		return message.Envelope{}, &ServiceError{Code: CodeInvalidArgument, Message: fmt.Sprintf("unknown message kind %q", kind)}
	}
	if len(payload) == 0 {
		return message.Envelope{}, &ServiceError{Code: CodeInvalidArgument, Message: "payload is required"}
	}
	if len(payload) > maxPayloadBytes {
		return message.Envelope{}, &ServiceError{Code: CodeInvalidArgument, Message: fmt.Sprintf("payload exceeds %d bytes", maxPayloadBytes)}
	}
	dir, err := message.ParseDirection(string(direction))
	if err != nil {
		return message.Envelope{}, &ServiceError{Code: CodeInvalidArgument, Message: err.Error()}
	}
	p, err := message.Decode(kind, payload)
	if err != nil {
		return message.Envelope{}, &ServiceError{Code: CodeInvalidArgument, Message: err.Error()}
	}
	if p.Head().MessageID == "" {
		return message.Envelope{}, &ServiceError{Code: CodeInvalidArgument, Message: "payload has no messageId"}
	}
	return message.Envelope{Sender: sender, Direction: dir, Payload: p}, nil
}

// Validate classifies the message against stored history, validates it, and stores it when
// accepted and input.Persist is set.
func (s *Service) Validate(ctx context.Context, input *ValidateInput) (*ValidateOutput, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	env, serr := decodeEnvelope(input.Sender, input.Direction, input.Kind, input.Payload)
	if serr != nil {
		return nil, serr
	}
	return s.ValidateMessage(ctx, env, input.Persist)
}

// ValidateMessage is Validate for an already decoded envelope.
func (s *Service) ValidateMessage(ctx context.Context, env message.Envelope, persist bool) (*ValidateOutput, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if env.Payload == nil {
		return nil, &ServiceError{Code: CodeInvalidArgument, Message: "payload is required"}
	}
	start := time.Now()
	kind := string(env.Payload.Kind())
	slog.Debug(fmt.Sprintf("%s - kind=%s id=%s sender=%s persist=%v",
		validateLogPrefix, kind, env.Payload.Head().MessageID, env.Sender, persist))

	out, err := s.classified(ctx, env)
	if err != nil {
		s.metrics.ObserveValidation(kind, metrics.OutcomeFault, time.Since(start))
		return nil, err
	}
	if out == nil {
		out, err = s.validate(ctx, env)
		if err != nil {
			s.metrics.ObserveValidation(kind, metrics.OutcomeFault, time.Since(start))
			return nil, err
		}
		if out.Outcome == OutcomeAccepted && persist {
			if err := s.persist(ctx, env, out); err != nil {
				s.metrics.ObserveValidation(kind, metrics.OutcomeFault, time.Since(start))
				return nil, err
			}
		}
	}

	s.metrics.ObserveValidation(kind, out.Outcome, time.Since(start))
	if out.Outcome == OutcomeRejected {
		s.metrics.RecordRejection(kind, out.Validator)
		slog.Info(fmt.Sprintf("%s - %s %s rejected by %s: %s", validateLogPrefix, kind, out.MessageID, out.Validator, out.Reason))
	}
	s.publish(ctx, env, out)
	return out, nil
}

// Check validates the message against the business rules only: no duplicate classification,
// no persistence and no event.
func (s *Service) Check(ctx context.Context, input *ValidateInput) (*ValidateOutput, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	env, serr := decodeEnvelope(input.Sender, input.Direction, input.Kind, input.Payload)
	if serr != nil {
		return nil, serr
	}
	return s.CheckMessage(ctx, env)
}

// CheckMessage is Check for an already decoded envelope.
func (s *Service) CheckMessage(ctx context.Context, env message.Envelope) (*ValidateOutput, error) {
	if err := s.requireStore(); err != nil {
		return nil, err
	}
	if env.Payload == nil {
		return nil, &ServiceError{Code: CodeInvalidArgument, Message: "payload is required"}
	}
	start := time.Now()
	kind := string(env.Payload.Kind())

	out, err := s.validate(ctx, env)
	if err != nil {
		s.metrics.ObserveValidation(kind, metrics.OutcomeFault, time.Since(start))
		return nil, err
	}
	s.metrics.ObserveValidation(kind, out.Outcome, time.Since(start))
	if out.Outcome == OutcomeRejected {
		s.metrics.RecordRejection(kind, out.Validator)
	}
	return out, nil
}

// classified returns a final output when the message id is already taken, or nil for a new message.
func (s *Service) classified(ctx context.Context, env message.Envelope) (*ValidateOutput, error) {
	outcome, err := s.duplicates.Classify(ctx, env.Payload)
	if err != nil {
		return nil, s.internalError(env, "classify", err)
	}
	s.metrics.RecordClassification(string(env.Payload.Kind()), outcome.String())
	return duplicateOutput(env.Payload, outcome), nil
}

func duplicateOutput(p message.Payload, outcome validation.DuplicateOutcome) *ValidateOutput {
	switch outcome {
	case validation.Duplicate:
		return &ValidateOutput{MessageID: p.Head().MessageID, Kind: string(p.Kind()), Outcome: OutcomeDuplicate}
	case validation.ReusedIdDifferentContent:
		return &ValidateOutput{
			MessageID: p.Head().MessageID,
			Kind:      string(p.Kind()),
			Outcome:   OutcomeRejected,
			Reason:    ReasonReusedMessageID,
			Validator: ValidatorDuplicate,
		}
	}
	return nil
}

func (s *Service) validate(ctx context.Context, env message.Envelope) (*ValidateOutput, error) {
	res, err := s.engine.ValidateEnvelope(ctx, env)
	if err != nil {
		return nil, s.internalError(env, "validate", err)
	}
	out := &ValidateOutput{
		MessageID: env.Payload.Head().MessageID,
		Kind:      string(env.Payload.Kind()),
		Outcome:   OutcomeAccepted,
	}
	if res.Rejected() {
		out.Outcome = OutcomeRejected
		out.Reason = res.Reason
		out.Validator = res.Validator
	}
	return out, nil
}

// persist stores an accepted message. When a concurrent delivery of the same id won the
// insert, the message is classified again against the winner.
func (s *Service) persist(ctx context.Context, env message.Envelope, out *ValidateOutput) error {
	inserted, err := s.store.Save(ctx, env)
	if err != nil {
		return s.internalError(env, "save", err)
	}
	if inserted {
		out.Persisted = true
		return nil
	}

	s.metrics.RecordSaveRace()
	slog.Warn(fmt.Sprintf("%s - %s %s lost save race, classifying again", validateLogPrefix, out.Kind, out.MessageID))

	outcome, err := s.duplicates.Classify(ctx, env.Payload)
	if err != nil {
		return s.internalError(env, "classify", err)
	}
	again := duplicateOutput(env.Payload, outcome)
	if again == nil {
		return s.internalError(env, "save", fmt.Errorf("%s - insert of %s reported a conflict but no stored message was found", validateLogPrefix, out.MessageID))
	}
	*out = *again
	return nil
}

func (s *Service) internalError(env message.Envelope, op string, err error) *ServiceError {
	kind := string(env.Payload.Kind())
	validator := op
	var fault *validation.FaultError
	if errors.As(err, &fault) {
		validator = fault.Validator
	}
	s.metrics.RecordFault(kind, validator)
	slog.Error(fmt.Sprintf("%s - %s of %s %s failed: %v", validateLogPrefix, op, kind, env.Payload.Head().MessageID, err))
	return &ServiceError{
		Code:    CodeInternalError,
		Message: err.Error(),
		Details: map[string]string{"operation": op, "validator": validator},
	}
}

func (s *Service) publish(ctx context.Context, env message.Envelope, out *ValidateOutput) {
	event := events.NewValidationCompletedEvent(env, out.Outcome, s.clock())
	event.Reason = out.Reason
	event.Validator = out.Validator
	event.Persisted = out.Persisted
	if err := s.publisher.PublishValidated(ctx, event); err != nil {
		s.metrics.RecordPublishError()
		slog.Warn(fmt.Sprintf("%s - failed to publish event for %s %s: %v", validateLogPrefix, out.Kind, out.MessageID, err))
	}
}
