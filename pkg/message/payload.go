package message

import "time"

// Payload is one UFTP payload message. Implementations are the pointer types in this package.
type Payload interface {
	Kind() Kind
	Head() Header
}

// Header holds the attributes every payload message carries.
type Header struct {
	Version         string    `json:"version"`
	SenderDomain    string    `json:"senderDomain"`
	RecipientDomain string    `json:"recipientDomain"`
	TimeStamp       time.Time `json:"timeStamp"`
	MessageID       string    `json:"messageId"`
	ConversationID  string    `json:"conversationId"`
}

// Head returns the common header.
func (h Header) Head() Header { return h }

// FlexHeader holds the attributes shared by flex messages.
type FlexHeader struct {
	ISPDuration     Duration `json:"ispDuration"`
	TimeZone        string   `json:"timeZone"`
	Period          Period   `json:"period"`
	CongestionPoint string   `json:"congestionPoint"`
}

// Flex returns the shared flex attributes.
func (f FlexHeader) Flex() FlexHeader { return f }

// FlexMessage is a payload carrying a FlexHeader.
type FlexMessage interface {
	Payload
	Flex() FlexHeader
}

// AcceptedRejected is the outcome a response reports for the message it answers.
type AcceptedRejected string

const (
	Accepted AcceptedRejected = "Accepted"
	Rejected AcceptedRejected = "Rejected"
)

// ResponseHeader holds the outcome attributes shared by responses.
type ResponseHeader struct {
	Result          AcceptedRejected `json:"result"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
}

// Outcome returns the response outcome.
func (r ResponseHeader) Outcome() ResponseHeader { return r }

// Response is a payload answering an earlier message.
type Response interface {
	Payload
	Outcome() ResponseHeader
}
