package dispatcher

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/morezero/uftp-compliance/pkg/compliance"
)

const dispatcherTestPrefix = "dispatcher:dispatcher_test"

func TestComplianceRequest_Unmarshal(t *testing.T) {
	raw := `{
		"id": "req-1",
		"type": "invoke",
		"cap": "uftp.compliance",
		"method": "validate",
		"params": {"kind": "FlexOffer", "payload": {"messageId": "m-1"}},
		"ctx": {"requestId": "r-9", "timeoutMs": 250}
	}`

	var req ComplianceRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("%s - failed to unmarshal: %v", dispatcherTestPrefix, err)
	}
	if req.ID != "req-1" || req.Method != "validate" {
		t.Errorf("%s - id/method = %s/%s", dispatcherTestPrefix, req.ID, req.Method)
	}
	if req.Ctx == nil || req.Ctx.TimeoutMs != 250 || req.Ctx.RequestID != "r-9" {
		t.Errorf("%s - ctx = %+v", dispatcherTestPrefix, req.Ctx)
	}

	var input compliance.ValidateInput
	if err := json.Unmarshal(req.Params, &input); err != nil {
		t.Fatalf("%s - params: %v", dispatcherTestPrefix, err)
	}
	if input.Kind != "FlexOffer" || len(input.Payload) == 0 {
		t.Errorf("%s - input = %+v", dispatcherTestPrefix, input)
	}
}

func TestServiceErrorToResponse(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
	}{
		{"invalid argument", compliance.NewServiceError(compliance.CodeInvalidArgument, "bad kind"), compliance.CodeInvalidArgument, false},
		{"internal error", compliance.NewServiceError(compliance.CodeInternalError, "store down"), compliance.CodeInternalError, true},
		{"plain error", errors.New("boom"), compliance.CodeInternalError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := serviceErrorToResponse("req-1", tt.err)
			if resp.Ok || resp.Error == nil {
				t.Fatalf("%s - expected error response, got %+v", dispatcherTestPrefix, resp)
			}
			if resp.ID != "req-1" {
				t.Errorf("%s - ID = %q, want req-1", dispatcherTestPrefix, resp.ID)
			}
			if resp.Error.Code != tt.wantCode || resp.Error.Retryable != tt.wantRetryable {
				t.Errorf("%s - error = %+v, want %s retryable=%v", dispatcherTestPrefix, resp.Error, tt.wantCode, tt.wantRetryable)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	resp := errorResponse("req-2", "METHOD_NOT_FOUND", "Unknown method: x", false)
	if resp.Ok || resp.ID != "req-2" || resp.Error.Code != "METHOD_NOT_FOUND" || resp.Error.Retryable {
		t.Errorf("%s - resp = %+v", dispatcherTestPrefix, resp)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("%s - marshal: %v", dispatcherTestPrefix, err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("%s - unmarshal: %v", dispatcherTestPrefix, err)
	}
	if _, has := decoded["result"]; has {
		t.Errorf("%s - error response should omit result", dispatcherTestPrefix)
	}
}
