package dispatcher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/uftp-compliance/pkg/compliance"
	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
	"github.com/morezero/uftp-compliance/pkg/policy"
	"github.com/morezero/uftp-compliance/pkg/validation"
)

const routingTestPrefix = "dispatcher:dispatch_routing_test"

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	pol, err := policy.Compile(policy.DefaultDocument())
	if err != nil {
		t.Fatalf("%s - policy: %v", routingTestPrefix, err)
	}
	store := history.NewMemoryStore(history.ScopeConversation, history.ReferenceData{
		Participants: []history.ParticipantEntry{
			{Domain: "dso.example.com", Role: message.RoleDSO, Handled: true},
			{Domain: "agr.example.com", Role: message.RoleAGR, Handled: true},
		},
	})
	engine, err := validation.NewEngine(validation.NewEngineParams{History: store, Settings: pol})
	if err != nil {
		t.Fatalf("%s - engine: %v", routingTestPrefix, err)
	}
	svc := compliance.NewService(compliance.NewServiceParams{Store: store, Engine: engine, PolicyName: pol.Name()})
	return NewDispatcher(svc, time.Second)
}

func testMessageParams(t *testing.T, id string, persist bool) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(&message.TestMessage{Header: message.Header{
		Version:         "3.0.0",
		SenderDomain:    "agr.example.com",
		RecipientDomain: "dso.example.com",
		TimeStamp:       time.Now().UTC(),
		MessageID:       id,
		ConversationID:  uuid.NewString(),
	}})
	if err != nil {
		t.Fatalf("%s - marshal: %v", routingTestPrefix, err)
	}
	params, err := json.Marshal(compliance.ValidateInput{
		Sender:  message.Participant{Domain: "agr.example.com", Role: message.RoleAGR},
		Kind:    message.KindTestMessage,
		Payload: payload,
		Persist: persist,
	})
	if err != nil {
		t.Fatalf("%s - marshal params: %v", routingTestPrefix, err)
	}
	return params
}

// TestDispatch_UnknownMethod verifies that unknown methods return METHOD_NOT_FOUND.
func TestDispatch_UnknownMethod(t *testing.T) {
	disp := &Dispatcher{service: nil}

	for _, id := range []string{"req-1", "unique-abc-123", ""} {
		resp := disp.Dispatch(context.Background(), &ComplianceRequest{ID: id, Method: "nonexistent", Params: json.RawMessage(`{}`)})
		if resp.Ok || resp.ID != id {
			t.Errorf("%s - resp = %+v, want failure with id %q", routingTestPrefix, resp, id)
		}
		if resp.Error == nil || resp.Error.Code != "METHOD_NOT_FOUND" || resp.Error.Retryable {
			t.Errorf("%s - expected non-retryable METHOD_NOT_FOUND, got %+v", routingTestPrefix, resp.Error)
		}
	}
}

func TestDispatch_NilService(t *testing.T) {
	disp := &Dispatcher{service: nil}
	resp := disp.Dispatch(context.Background(), &ComplianceRequest{ID: "x", Method: MethodHealth})
	if resp.Ok || resp.Error == nil || resp.Error.Code != compliance.CodeInternalError || !resp.Error.Retryable {
		t.Errorf("%s - resp = %+v, want retryable INTERNAL_ERROR", routingTestPrefix, resp)
	}
}

func TestDispatch_ValidateThenClassify(t *testing.T) {
	disp := newTestDispatcher(t)
	ctx := context.Background()
	id := uuid.NewString()
	params := testMessageParams(t, id, true)

	resp := disp.Dispatch(ctx, &ComplianceRequest{ID: "1", Method: MethodValidate, Params: params})
	if !resp.Ok {
		t.Fatalf("%s - validate failed: %+v", routingTestPrefix, resp.Error)
	}
	out, ok := resp.Result.(*compliance.ValidateOutput)
	if !ok || out.Outcome != compliance.OutcomeAccepted || !out.Persisted || out.MessageID != id {
		t.Fatalf("%s - validate result = %#v", routingTestPrefix, resp.Result)
	}

	resp = disp.Dispatch(ctx, &ComplianceRequest{ID: "2", Method: MethodValidate, Params: params})
	if out := resp.Result.(*compliance.ValidateOutput); out.Outcome != compliance.OutcomeDuplicate {
		t.Errorf("%s - redelivery outcome = %s, want duplicate", routingTestPrefix, out.Outcome)
	}

	var input compliance.ValidateInput
	if err := json.Unmarshal(params, &input); err != nil {
		t.Fatalf("%s - unmarshal params: %v", routingTestPrefix, err)
	}
	classifyParams, _ := json.Marshal(compliance.ClassifyInput{Kind: input.Kind, Payload: input.Payload})
	resp = disp.Dispatch(ctx, &ComplianceRequest{ID: "3", Method: MethodClassify, Params: classifyParams})
	if !resp.Ok {
		t.Fatalf("%s - classify failed: %+v", routingTestPrefix, resp.Error)
	}
	if cls := resp.Result.(*compliance.ClassifyOutput); cls.Classification != "Duplicate" {
		t.Errorf("%s - classification = %s, want Duplicate", routingTestPrefix, cls.Classification)
	}
}

func TestDispatch_Check(t *testing.T) {
	disp := newTestDispatcher(t)
	resp := disp.Dispatch(context.Background(), &ComplianceRequest{ID: "c", Method: MethodCheck, Params: testMessageParams(t, uuid.NewString(), true)})
	if !resp.Ok {
		t.Fatalf("%s - check failed: %+v", routingTestPrefix, resp.Error)
	}
	if out := resp.Result.(*compliance.ValidateOutput); out.Outcome != compliance.OutcomeAccepted || out.Persisted {
		t.Errorf("%s - check = %+v, want accepted and not persisted", routingTestPrefix, out)
	}
}

func TestDispatch_InvalidParams(t *testing.T) {
	disp := newTestDispatcher(t)

	tests := []struct {
		name   string
		method string
		params string
	}{
		{"validate malformed", MethodValidate, `{"kind":`},
		{"validate unknown field", MethodValidate, `{"kind":"TestMessage","bogus":1}`},
		{"check malformed", MethodCheck, `[]`},
		{"classify malformed", MethodClassify, `"x"`},
		{"validate unknown kind", MethodValidate, `{"kind":"Nope","payload":{"messageId":"m"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := disp.Dispatch(context.Background(), &ComplianceRequest{ID: "p", Method: tt.method, Params: json.RawMessage(tt.params)})
			if resp.Ok || resp.Error == nil || resp.Error.Code != compliance.CodeInvalidArgument || resp.Error.Retryable {
				t.Errorf("%s - resp = %+v, want non-retryable INVALID_ARGUMENT", routingTestPrefix, resp.Error)
			}
		})
	}
}

func TestDispatch_Health(t *testing.T) {
	disp := newTestDispatcher(t)
	resp := disp.Dispatch(context.Background(), &ComplianceRequest{ID: "h", Method: MethodHealth})
	if !resp.Ok {
		t.Fatalf("%s - health failed: %+v", routingTestPrefix, resp.Error)
	}
	out := resp.Result.(*compliance.HealthOutput)
	if out.Status != "healthy" || out.Policy != "uftp-default" {
		t.Errorf("%s - health = %+v", routingTestPrefix, out)
	}
}

func TestWithTimeout(t *testing.T) {
	disp := &Dispatcher{timeout: time.Minute}

	ctx, cancel := disp.withTimeout(context.Background(), &InvocationContext{TimeoutMs: 50})
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) > time.Second {
		t.Errorf("%s - expected caller timeout to win, deadline=%v ok=%v", routingTestPrefix, deadline, ok)
	}

	none := &Dispatcher{}
	ctx, cancel = none.withTimeout(context.Background(), nil)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Errorf("%s - expected no deadline without timeouts", routingTestPrefix)
	}
}
