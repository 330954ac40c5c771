// Package compliance is the UFTP compliance service: duplicate classification, business-rule
// validation, first-writer-wins persistence, events and metrics behind one facade.
package compliance

import (
	"encoding/json"

	"github.com/morezero/uftp-compliance/pkg/message"
)

// Outcomes reported by Validate and Check.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
)

// Error codes.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// ReasonReusedMessageID is the rejection reason for a message id already used by other content.
const ReasonReusedMessageID = "MessageID already used for different content"

// ValidatorDuplicate names the duplicate check in results.
const ValidatorDuplicate = "DuplicateMessage"

// ValidateInput holds parameters for the validate and check methods.
type ValidateInput struct {
	Sender message.Participant `json:"sender"`
	// Direction defaults to Incoming.
	Direction message.Direction `json:"direction,omitempty"`
	Kind      message.Kind      `json:"kind"`
	Payload   json.RawMessage   `json:"payload"`
	// Persist stores the message when accepted. Ignored by check.
	Persist bool `json:"persist,omitempty"`
}

// ValidateOutput holds the result of the validate and check methods.
type ValidateOutput struct {
	MessageID string `json:"messageId"`
	Kind      string `json:"kind"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
	Validator string `json:"validator,omitempty"`
	Persisted bool   `json:"persisted"`
}

// Accepted reports whether the message was accepted, including silently accepted redeliveries.
func (o *ValidateOutput) Accepted() bool {
	return o.Outcome == OutcomeAccepted || o.Outcome == OutcomeDuplicate
}

// ClassifyInput holds parameters for the classify method.
type ClassifyInput struct {
	Kind    message.Kind    `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ClassifyOutput holds the result of the classify method.
type ClassifyOutput struct {
	MessageID      string `json:"messageId"`
	Classification string `json:"classification"`
}

// HealthOutput holds the result of the health method.
type HealthOutput struct {
	Status     string       `json:"status"`
	Checks     HealthChecks `json:"checks"`
	Policy     string       `json:"policy,omitempty"`
	Validators int          `json:"validators"`
	Timestamp  string       `json:"timestamp"`
}

// HealthChecks holds per-dependency health results.
type HealthChecks struct {
	Store bool `json:"store"`
}

// ServiceError is a structured error from the compliance service.
type ServiceError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Code + ": " + e.Message
}

// NewServiceError creates a new ServiceError.
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}
