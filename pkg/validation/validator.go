package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
)

// Phase orders validators. Cheap structural checks run before cross-message lookups.
type Phase int

const (
	// PhaseBase checks envelope, sender and recipient sanity.
	PhaseBase Phase = iota
	// PhaseFlexMessage checks fields per message class.
	PhaseFlexMessage
	// PhaseMessageSpecific checks that need earlier messages.
	PhaseMessageSpecific
)

func (p Phase) String() string {
	switch p {
	case PhaseBase:
		return "Base"
	case PhaseFlexMessage:
		return "FlexMessage"
	case PhaseMessageSpecific:
		return "MessageSpecific"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Settings answers which protocol settings this deployment supports.
type Settings interface {
	IsSupportedIspDuration(d message.Duration) bool
	IsSupportedTimeZone(tz string) bool
	IsSupportedVersion(version string) bool
	IsSupportedCurrency(code string) bool
}

// Input is what a validator sees: the envelope under validation and the capabilities it may consult.
type Input struct {
	Envelope message.Envelope
	History  history.Reader
	Settings Settings
	// Now is the engine clock reading taken once per validation.
	Now time.Time
}

// Payload returns the message under validation.
func (in *Input) Payload() message.Payload {
	return in.Envelope.Payload
}

// Validator is one business rule.
type Validator interface {
	Name() string
	Phase() Phase
	AppliesTo(k message.Kind) bool
	// Valid reports whether the rule holds. An error is an internal fault, not a rejection.
	Valid(ctx context.Context, in *Input) (bool, error)
	Reason() string
}

// rule is the Validator every catalog entry is built from.
type rule struct {
	name    string
	phase   Phase
	applies func(message.Kind) bool
	check   func(ctx context.Context, in *Input) (bool, error)
	reason  string
}

func (r *rule) Name() string                  { return r.name }
func (r *rule) Phase() Phase                  { return r.phase }
func (r *rule) AppliesTo(k message.Kind) bool { return r.applies(k) }
func (r *rule) Reason() string                { return r.reason }

func (r *rule) Valid(ctx context.Context, in *Input) (bool, error) {
	return r.check(ctx, in)
}

// NewRule builds a Validator from a predicate. The catalog is made of these; callers can add
// deployment specific rules the same way.
func NewRule(name string, phase Phase, applies func(message.Kind) bool, reason string, check func(ctx context.Context, in *Input) (bool, error)) Validator {
	return &rule{name: name, phase: phase, applies: applies, check: check, reason: reason}
}

func kinds(ks ...message.Kind) func(message.Kind) bool {
	set := make(map[message.Kind]bool, len(ks))
	for _, k := range ks {
		set[k] = true
	}
	return func(k message.Kind) bool { return set[k] }
}

func anyKind(message.Kind) bool { return true }

func flexKinds(k message.Kind) bool { return k.IsFlexMessage() }

// answeredResponses are response kinds that carry a result and a reference to their request.
func answeredResponses(k message.Kind) bool {
	return k.IsResponse() && k != message.KindTestMessageResponse
}

// intervalKinds carry a time zone, an ISP duration and ISP lists bounded by a calendar day.
func intervalKinds(k message.Kind) bool {
	return k.IsFlexMessage() || k == message.KindMetering || k == message.KindFlexSettlement
}
