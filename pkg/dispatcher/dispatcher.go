package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/uftp-compliance/pkg/commsutil"
	"github.com/morezero/uftp-compliance/pkg/compliance"
)

const logPrefix = "dispatcher:dispatch"

// Method names.
const (
	MethodValidate = "validate"
	MethodCheck    = "check"
	MethodClassify = "classify"
	MethodHealth   = "health"
)

// Dispatcher routes COMMS requests to compliance service methods.
type Dispatcher struct {
	service *compliance.Service
	timeout time.Duration
}

// NewDispatcher creates a new Dispatcher. timeout bounds each request unless the caller sets
// ctx.timeoutMs; zero means no bound.
func NewDispatcher(svc *compliance.Service, timeout time.Duration) *Dispatcher {
	return &Dispatcher{service: svc, timeout: timeout}
}

// Dispatch routes a request to the appropriate service method and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *ComplianceRequest) *ComplianceResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	if d.service == nil {
		switch req.Method {
		case MethodValidate, MethodCheck, MethodClassify, MethodHealth:
			return errorResponse(req.ID, compliance.CodeInternalError, "compliance service not configured", true)
		}
	}

	ctx, cancel := d.withTimeout(ctx, req.Ctx)
	defer cancel()

	switch req.Method {
	case MethodValidate:
		return d.handleValidate(ctx, req)
	case MethodCheck:
		return d.handleCheck(ctx, req)
	case MethodClassify:
		return d.handleClassify(ctx, req)
	case MethodHealth:
		return d.handleHealth(ctx, req)
	default:
		return &ComplianceResponse{
			ID: req.ID,
			Ok: false,
			Error: &ErrorDetail{
				Code:      "METHOD_NOT_FOUND",
				Message:   fmt.Sprintf("Unknown method: %s", req.Method),
				Retryable: false,
			},
		}
	}
}

func (d *Dispatcher) withTimeout(ctx context.Context, invCtx *InvocationContext) (context.Context, context.CancelFunc) {
	timeout := d.timeout
	if invCtx != nil && invCtx.TimeoutMs > 0 {
		timeout = time.Duration(invCtx.TimeoutMs) * time.Millisecond
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (d *Dispatcher) handleValidate(ctx context.Context, req *ComplianceRequest) *ComplianceResponse {
	var input compliance.ValidateInput
	if err := commsutil.DecodeStrict(req.Params, &input); err != nil {
		return errorResponse(req.ID, compliance.CodeInvalidArgument, "Failed to parse validate params", false)
	}

	result, err := d.service.Validate(ctx, &input)
	if err != nil {
		return serviceErrorToResponse(req.ID, err)
	}
	return &ComplianceResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleCheck(ctx context.Context, req *ComplianceRequest) *ComplianceResponse {
	var input compliance.ValidateInput
	if err := commsutil.DecodeStrict(req.Params, &input); err != nil {
		return errorResponse(req.ID, compliance.CodeInvalidArgument, "Failed to parse check params", false)
	}

	result, err := d.service.Check(ctx, &input)
	if err != nil {
		return serviceErrorToResponse(req.ID, err)
	}
	return &ComplianceResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleClassify(ctx context.Context, req *ComplianceRequest) *ComplianceResponse {
	var input compliance.ClassifyInput
	if err := commsutil.DecodeStrict(req.Params, &input); err != nil {
		return errorResponse(req.ID, compliance.CodeInvalidArgument, "Failed to parse classify params", false)
	}

	result, err := d.service.Classify(ctx, &input)
	if err != nil {
		return serviceErrorToResponse(req.ID, err)
	}
	return &ComplianceResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleHealth(ctx context.Context, req *ComplianceRequest) *ComplianceResponse {
	result := d.service.Health(ctx)
	return &ComplianceResponse{ID: req.ID, Ok: true, Result: result}
}

// --- helpers ---

func errorResponse(id, code, message string, retryable bool) *ComplianceResponse {
	return &ComplianceResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func serviceErrorToResponse(id string, err error) *ComplianceResponse {
	var svcErr *compliance.ServiceError
	if errors.As(err, &svcErr) {
		return &ComplianceResponse{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:      svcErr.Code,
				Message:   svcErr.Message,
				Details:   svcErr.Details,
				Retryable: svcErr.Code == compliance.CodeInternalError,
			},
		}
	}
	return errorResponse(id, compliance.CodeInternalError, err.Error(), true)
}
