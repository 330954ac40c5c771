package validation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
	"github.com/morezero/uftp-compliance/pkg/policy"
)

const (
	dsoDomain       = "dso.example.com"
	agrDomain       = "agr.example.com"
	croDomain       = "cro.example.com"
	amsterdam       = "Europe/Amsterdam"
	congestionPtID  = "ean.871685900012636543"
	knownContractID = "contract-1"
	knownBaseline   = "baseline-1"
)

var (
	dso = message.Participant{Domain: dsoDomain, Role: message.RoleDSO}
	agr = message.Participant{Domain: agrDomain, Role: message.RoleAGR}

	// testNow is the engine clock: the day before the default test period.
	testNow = time.Date(2022, 11, 21, 12, 0, 0, 0, time.UTC)
)

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Compile(policy.Document{
		Settings: policy.SettingsDocument{
			ISPDurations: []string{"PT15M"},
			TimeZones:    []string{amsterdam},
			Currencies:   []string{"EUR"},
			Versions:     ">=3.0.0 <4.0.0",
		},
	})
	if err != nil {
		t.Fatalf("validation:helpers_test - policy: %v", err)
	}
	return p
}

// testStore serves both domains so each side of a conversation can be validated.
func testStore(scope history.ReferenceScope) *history.MemoryStore {
	return history.NewMemoryStore(scope, history.ReferenceData{
		Participants: []history.ParticipantEntry{
			{Domain: dsoDomain, Role: message.RoleDSO, Handled: true},
			{Domain: agrDomain, Role: message.RoleAGR, Handled: true},
			{Domain: croDomain, Role: message.RoleCRO, Handled: true},
		},
		CongestionPoints:   []string{congestionPtID},
		ContractIDs:        []string{knownContractID},
		BaselineReferences: []string{knownBaseline},
	})
}

func newTestEngine(t *testing.T, store history.Reader, disabled ...string) *Engine {
	t.Helper()
	return newTestEngineAt(t, store, testNow, disabled...)
}

func newTestEngineAt(t *testing.T, store history.Reader, now time.Time, disabled ...string) *Engine {
	t.Helper()
	e, err := NewEngine(NewEngineParams{
		History:  store,
		Settings: testPolicy(t),
		Disabled: disabled,
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("validation:helpers_test - NewEngine: %v", err)
	}
	return e
}

func header(from, to, conversation string) message.Header {
	return message.Header{
		Version:         "3.0.0",
		SenderDomain:    from,
		RecipientDomain: to,
		TimeStamp:       testNow,
		MessageID:       uuid.NewString(),
		ConversationID:  conversation,
	}
}

func flexHeader(period string) message.FlexHeader {
	return message.FlexHeader{
		ISPDuration:     message.Minutes(15),
		TimeZone:        amsterdam,
		Period:          message.MustPeriod(period),
		CongestionPoint: congestionPtID,
	}
}

// newFlexRequest builds a valid DSO FlexRequest for 2022-11-22 requesting ISPs 1-4.
func newFlexRequest(conversation string) *message.FlexRequest {
	return &message.FlexRequest{
		Header:             header(dsoDomain, agrDomain, conversation),
		FlexHeader:         flexHeader("2022-11-22"),
		Revision:           1,
		ExpirationDateTime: time.Date(2022, 11, 21, 20, 0, 0, 0, time.UTC),
		ISPs: []message.FlexRequestISP{
			{Start: 1, Duration: 4, Disposition: message.DispositionRequested, MinPower: -1000, MaxPower: 0},
		},
	}
}

// newFlexOffer builds a valid AGR FlexOffer answering req with one option on ISPs 1-4.
func newFlexOffer(req *message.FlexRequest) *message.FlexOffer {
	offer := &message.FlexOffer{
		Header:             header(agrDomain, dsoDomain, ""),
		FlexHeader:         flexHeader("2022-11-22"),
		ExpirationDateTime: time.Date(2022, 11, 21, 20, 0, 0, 0, time.UTC),
		Currency:           "EUR",
		OfferOptions: []message.FlexOfferOption{
			{OptionReference: "opt-1", Price: 12.5, MinActivationFactor: 0.5, ISPs: []message.PowerISP{{Start: 1, Duration: 4, Power: -800}}},
		},
	}
	if req != nil {
		offer.ConversationID = req.ConversationID
		offer.FlexRequestMessageID = req.MessageID
	}
	return offer
}

// newFlexOrder builds a valid DSO FlexOrder for opt-1 of offer.
func newFlexOrder(offer *message.FlexOffer) *message.FlexOrder {
	opt := offer.OfferOptions[0]
	return &message.FlexOrder{
		Header:             header(dsoDomain, agrDomain, offer.ConversationID),
		FlexHeader:         offer.FlexHeader,
		FlexOfferMessageID: offer.MessageID,
		Price:              opt.Price,
		Currency:           "EUR",
		OrderReference:     "order-" + uuid.NewString(),
		OptionReference:    opt.OptionReference,
		ActivationFactor:   1,
		ISPs:               append([]message.PowerISP(nil), opt.ISPs...),
	}
}

func save(t *testing.T, store history.Store, direction message.Direction, p message.Payload) {
	t.Helper()
	inserted, err := store.Save(context.Background(), message.Envelope{Direction: direction, Payload: p})
	if err != nil || !inserted {
		t.Fatalf("validation:helpers_test - Save %s %s = %v, %v", p.Kind(), p.Head().MessageID, inserted, err)
	}
}

func mustValidate(t *testing.T, e *Engine, env message.Envelope) Result {
	t.Helper()
	res, err := e.ValidateEnvelope(context.Background(), env)
	if err != nil {
		t.Fatalf("validation:helpers_test - ValidateEnvelope %s: unexpected fault %v", env.Payload.Kind(), err)
	}
	return res
}

func expectReason(t *testing.T, res Result, want string) {
	t.Helper()
	if want == "" {
		if !res.Valid {
			t.Errorf("validation:helpers_test - got %s (by %s), want accepted", res, res.Validator)
		}
		return
	}
	if res.Valid || res.Reason != want {
		t.Errorf("validation:helpers_test - got %s, want rejected: %s", res, want)
	}
}
