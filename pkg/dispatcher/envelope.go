// Package dispatcher routes incoming COMMS messages to compliance service methods.
package dispatcher

import "encoding/json"

// ComplianceRequest is the JSON envelope for incoming COMMS compliance requests.
type ComplianceRequest struct {
	ID     string             `json:"id"`
	Type   string             `json:"type"`
	Cap    string             `json:"cap"`
	Method string             `json:"method"`
	Params json.RawMessage    `json:"params"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// ComplianceResponse is the JSON envelope for COMMS compliance responses.
type ComplianceResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// InvocationContext holds context from the caller.
type InvocationContext struct {
	RequestID     string `json:"requestId,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
	// TimeoutMs bounds the handling of this request; 0 uses the dispatcher default.
	TimeoutMs int `json:"timeoutMs,omitempty"`
}
