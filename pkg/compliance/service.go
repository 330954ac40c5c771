package compliance

import (
	"time"

	"github.com/morezero/uftp-compliance/pkg/events"
	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
	"github.com/morezero/uftp-compliance/pkg/metrics"
	"github.com/morezero/uftp-compliance/pkg/validation"
)

const maxPayloadBytes = 1 << 20

// Service is the compliance service containing all business operations.
type Service struct {
	store      history.Store
	engine     *validation.Engine
	duplicates *validation.DuplicateDetector
	publisher  events.EventPublisher
	metrics    *metrics.Metrics
	policyName string
	clock      func() time.Time
}

// NewServiceParams holds parameters for NewService.
type NewServiceParams struct {
	Store  history.Store
	Engine *validation.Engine
	// Publisher defaults to events.NoOpPublisher.
	Publisher events.EventPublisher
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// Canonicalizer defaults to message.JSONCanonicalizer.
	Canonicalizer message.Canonicalizer
	PolicyName    string
	// Clock stamps events; defaults to time.Now.
	Clock func() time.Time
}

// NewService creates a new Service instance.
func NewService(params NewServiceParams) *Service {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	var dups *validation.DuplicateDetector
	if params.Store != nil {
		dups = validation.NewDuplicateDetector(params.Store, params.Canonicalizer)
	}

	return &Service{
		store:      params.Store,
		engine:     params.Engine,
		duplicates: dups,
		publisher:  pub,
		metrics:    params.Metrics,
		policyName: params.PolicyName,
		clock:      clock,
	}
}

// requireStore returns an error if the store or engine is not configured (e.g. in tests).
func (s *Service) requireStore() *ServiceError {
	if s.store == nil {
		return &ServiceError{Code: CodeInternalError, Message: "store not configured"}
	}
	if s.engine == nil {
		return &ServiceError{Code: CodeInternalError, Message: "validation engine not configured"}
	}
	return nil
}
