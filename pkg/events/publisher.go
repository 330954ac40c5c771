package events

import (
	"context"
	"strings"
)

// EventPublisher is the interface for publishing validation events.
type EventPublisher interface {
	PublishValidated(ctx context.Context, event *ValidationCompletedEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// PublishValidated is a no-op.
func (p *NoOpPublisher) PublishValidated(_ context.Context, _ *ValidationCompletedEvent) error {
	return nil
}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(ctx context.Context, event *ValidationCompletedEvent) error

// PublishValidated calls f.
func (f PublisherFunc) PublishValidated(ctx context.Context, event *ValidationCompletedEvent) error {
	return f(ctx, event)
}

// OutcomeFilter forwards only events whose outcome is in the allowed set.
type OutcomeFilter struct {
	next    EventPublisher
	allowed map[string]bool
}

// NewOutcomeFilter wraps next so only the given outcomes (case-insensitive) are published.
// Without outcomes it returns next unchanged.
func NewOutcomeFilter(next EventPublisher, outcomes ...string) EventPublisher {
	allowed := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			allowed[o] = true
		}
	}
	if len(allowed) == 0 {
		return next
	}
	return &OutcomeFilter{next: next, allowed: allowed}
}

// PublishValidated forwards the event when its outcome is allowed.
func (f *OutcomeFilter) PublishValidated(ctx context.Context, event *ValidationCompletedEvent) error {
	if !f.allowed[strings.ToLower(event.Outcome)] {
		return nil
	}
	return f.next.PublishValidated(ctx, event)
}
