// Package validation decides whether a UFTP message is consistent with the protocol's
// cross-message business rules.
package validation

import "fmt"

// Result is the outcome of validating one message: accepted, or rejected with exactly one reason.
type Result struct {
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	Validator string `json:"validator,omitempty"`
}

// Ok is the accepted result.
func Ok() Result {
	return Result{Valid: true}
}

// Reject builds a rejected result carrying the failing validator's reason.
func Reject(validator, reason string) Result {
	return Result{Valid: false, Reason: reason, Validator: validator}
}

// Rejected reports whether the message was rejected.
func (r Result) Rejected() bool {
	return !r.Valid
}

func (r Result) String() string {
	if r.Valid {
		return "accepted"
	}
	return "rejected: " + r.Reason
}

// FaultError is an internal fault raised while a validator ran: a violated precondition that
// upstream schema validation should have caught, or a History Oracle failure. It is never a
// rejection reason.
type FaultError struct {
	Validator string
	Err       error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("validation: validator %s faulted: %v", e.Validator, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}
