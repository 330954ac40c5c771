package validation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
)

const logPrefix = "validation:engine"

// Engine applies the applicable validators of a message in phase order and reports the first
// failure. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	validators []Validator
	byKind     map[message.Kind][]Validator
	history    history.Reader
	settings   Settings
	clock      func() time.Time
}

// NewEngineParams holds the parameters for creating an Engine.
type NewEngineParams struct {
	History  history.Reader
	Settings Settings
	// Validators defaults to Catalog().
	Validators []Validator
	// Disabled names validators to drop from Validators.
	Disabled []string
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewEngine builds an Engine. The validator list is fixed here: filtered by Disabled and
// stable-sorted by phase so registration order breaks ties.
func NewEngine(params NewEngineParams) (*Engine, error) {
	if params.History == nil {
		return nil, fmt.Errorf("%s - history is required", logPrefix)
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("%s - settings are required", logPrefix)
	}

	source := params.Validators
	if source == nil {
		source = Catalog()
	}

	disabled := make(map[string]bool, len(params.Disabled))
	for _, name := range params.Disabled {
		disabled[name] = true
	}

	validators := make([]Validator, 0, len(source))
	seen := make(map[string]bool, len(source))
	for _, v := range source {
		if seen[v.Name()] {
			return nil, fmt.Errorf("%s - duplicate validator name %q", logPrefix, v.Name())
		}
		seen[v.Name()] = true
		if disabled[v.Name()] {
			slog.Info(fmt.Sprintf("%s - Validator %s disabled", logPrefix, v.Name()))
			continue
		}
		validators = append(validators, v)
	}

	var unknown []string
	for name := range disabled {
		if !seen[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s - cannot disable unknown validators: %s", logPrefix, strings.Join(unknown, ", "))
	}

	sort.SliceStable(validators, func(i, j int) bool {
		return validators[i].Phase() < validators[j].Phase()
	})

	byKind := make(map[message.Kind][]Validator, len(message.AllKinds))
	for _, k := range message.AllKinds {
		for _, v := range validators {
			if v.AppliesTo(k) {
				byKind[k] = append(byKind[k], v)
			}
		}
	}

	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Engine{
		validators: validators,
		byKind:     byKind,
		history:    params.History,
		settings:   params.Settings,
		clock:      clock,
	}, nil
}

// Validate validates a message received from sender.
func (e *Engine) Validate(ctx context.Context, sender message.Participant, payload message.Payload) (Result, error) {
	return e.ValidateEnvelope(ctx, message.Envelope{Sender: sender, Direction: message.Incoming, Payload: payload})
}

// ValidateEnvelope validates a message in either direction. A rejection is returned as a Result;
// the error is non-nil only for an internal fault, as a *FaultError.
func (e *Engine) ValidateEnvelope(ctx context.Context, env message.Envelope) (Result, error) {
	if env.Payload == nil {
		return Result{}, &FaultError{Validator: "-", Err: fmt.Errorf("%s - envelope has no payload", logPrefix)}
	}
	if env.Direction == "" {
		env.Direction = message.Incoming
	}

	in := &Input{
		Envelope: env,
		History:  e.history,
		Settings: e.settings,
		Now:      e.clock(),
	}
	h := env.Payload.Head()

	for _, v := range e.byKind[env.Payload.Kind()] {
		ok, err := v.Valid(ctx, in)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - Validator %s faulted on %s %s: %v", logPrefix, v.Name(), env.Payload.Kind(), h.MessageID, err))
			return Result{}, &FaultError{Validator: v.Name(), Err: err}
		}
		if !ok {
			slog.Debug(fmt.Sprintf("%s - %s %s rejected by %s: %s", logPrefix, env.Payload.Kind(), h.MessageID, v.Name(), v.Reason()))
			return Reject(v.Name(), v.Reason()), nil
		}
	}
	return Ok(), nil
}

// Applicable returns the validators that run for kind k, in evaluation order.
func (e *Engine) Applicable(k message.Kind) []Validator {
	return append([]Validator(nil), e.byKind[k]...)
}

// ValidatorNames returns the names of all enabled validators in evaluation order.
func (e *Engine) ValidatorNames() []string {
	names := make([]string, len(e.validators))
	for i, v := range e.validators {
		names[i] = v.Name()
	}
	return names
}
