package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectCompliance      = "uftp.compliance.v1"
	SubjectValidationEvent = "uftp.validated"
)

// BuildOutcomeSubject builds a granular validation event subject, e.g. uftp.validated.rejected.FlexOrder.
func BuildOutcomeSubject(outcome, kind string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectValidationEvent, strings.ToLower(outcome), sanitizeToken(kind))
}

// sanitizeToken keeps a value usable as one subject token.
func sanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(s)
}
