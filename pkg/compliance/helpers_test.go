package compliance

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/uftp-compliance/pkg/events"
	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
	"github.com/morezero/uftp-compliance/pkg/policy"
	"github.com/morezero/uftp-compliance/pkg/validation"
)

const (
	dsoDomain      = "dso.example.com"
	agrDomain      = "agr.example.com"
	congestionPtID = "ean.871685900012636543"
)

var (
	dso     = message.Participant{Domain: dsoDomain, Role: message.RoleDSO}
	agr     = message.Participant{Domain: agrDomain, Role: message.RoleAGR}
	testNow = time.Date(2022, 11, 21, 12, 0, 0, 0, time.UTC)
)

func testStore() *history.MemoryStore {
	return history.NewMemoryStore(history.ScopeConversation, history.ReferenceData{
		Participants: []history.ParticipantEntry{
			{Domain: dsoDomain, Role: message.RoleDSO, Handled: true},
			{Domain: agrDomain, Role: message.RoleAGR, Handled: true},
		},
		CongestionPoints: []string{congestionPtID},
	})
}

// eventRecorder captures published events.
type eventRecorder struct {
	mu     sync.Mutex
	events []*events.ValidationCompletedEvent
}

func (r *eventRecorder) publisher() events.PublisherFunc {
	return events.PublisherFunc(func(_ context.Context, e *events.ValidationCompletedEvent) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	})
}

func (r *eventRecorder) last(t *testing.T) *events.ValidationCompletedEvent {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatalf("compliance:helpers_test - no event published")
	}
	return r.events[len(r.events)-1]
}

func newTestService(t *testing.T, store history.Store, pub events.EventPublisher) *Service {
	t.Helper()
	pol, err := policy.Compile(policy.Document{
		Name: "test-policy",
		Settings: policy.SettingsDocument{
			ISPDurations: []string{"PT15M"},
			TimeZones:    []string{"Europe/Amsterdam"},
			Currencies:   []string{"EUR"},
			Versions:     ">=3.0.0 <4.0.0",
		},
	})
	if err != nil {
		t.Fatalf("compliance:helpers_test - policy: %v", err)
	}
	engine, err := validation.NewEngine(validation.NewEngineParams{
		History:  store,
		Settings: pol,
		Clock:    func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("compliance:helpers_test - NewEngine: %v", err)
	}
	return NewService(NewServiceParams{
		Store:      store,
		Engine:     engine,
		Publisher:  pub,
		PolicyName: pol.Name(),
		Clock:      func() time.Time { return testNow },
	})
}

// newFlexRequest builds a valid DSO FlexRequest for 2022-11-22 requesting ISPs 1-4.
func newFlexRequest() *message.FlexRequest {
	return &message.FlexRequest{
		Header: message.Header{
			Version:         "3.0.0",
			SenderDomain:    dsoDomain,
			RecipientDomain: agrDomain,
			TimeStamp:       testNow,
			MessageID:       uuid.NewString(),
			ConversationID:  uuid.NewString(),
		},
		FlexHeader: message.FlexHeader{
			ISPDuration:     message.Minutes(15),
			TimeZone:        "Europe/Amsterdam",
			Period:          message.MustPeriod("2022-11-22"),
			CongestionPoint: congestionPtID,
		},
		Revision:           1,
		ExpirationDateTime: time.Date(2022, 11, 21, 20, 0, 0, 0, time.UTC),
		ISPs: []message.FlexRequestISP{
			{Start: 1, Duration: 4, Disposition: message.DispositionRequested, MinPower: -1000, MaxPower: 0},
		},
	}
}

func validateInput(t *testing.T, sender message.Participant, p message.Payload, persist bool) *ValidateInput {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("compliance:helpers_test - marshal %s: %v", p.Kind(), err)
	}
	return &ValidateInput{Sender: sender, Kind: p.Kind(), Payload: data, Persist: persist}
}

func expectServiceError(t *testing.T, err error, code string) *ServiceError {
	t.Helper()
	serr, ok := err.(*ServiceError)
	if !ok {
		t.Fatalf("compliance:helpers_test - error = %v (%T), want *ServiceError", err, err)
	}
	if serr.Code != code {
		t.Errorf("compliance:helpers_test - code = %s, want %s (%s)", serr.Code, code, serr.Message)
	}
	return serr
}
