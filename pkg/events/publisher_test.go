package events

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/uftp-compliance/pkg/message"
)

const publisherTestPrefix = "events:publisher_test"

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishValidated(context.Background(), &ValidationCompletedEvent{Kind: "FlexOffer", Outcome: "accepted"})
	if err != nil {
		t.Errorf("%s - expected no error, got %v", publisherTestPrefix, err)
	}
}

func TestPublisherFunc(t *testing.T) {
	var captured *ValidationCompletedEvent

	pub := PublisherFunc(func(_ context.Context, event *ValidationCompletedEvent) error {
		captured = event
		return nil
	})

	event := &ValidationCompletedEvent{MessageID: "m-1", Kind: "FlexOrder", Outcome: "rejected", Reason: "ISP conflict"}
	if err := pub.PublishValidated(context.Background(), event); err != nil {
		t.Errorf("%s - expected no error, got %v", publisherTestPrefix, err)
	}
	if captured == nil {
		t.Fatalf("%s - expected callback to be called", publisherTestPrefix)
	}
	if captured.Reason != "ISP conflict" {
		t.Errorf("%s - reason = %q, want ISP conflict", publisherTestPrefix, captured.Reason)
	}
}

func TestOutcomeFilter(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []string
		want     []string
	}{
		{"no filter", nil, []string{"accepted", "rejected", "duplicate"}},
		{"blank entries only", []string{"", "  "}, []string{"accepted", "rejected", "duplicate"}},
		{"rejections", []string{"rejected"}, []string{"rejected"}},
		{"case and spaces", []string{" Rejected", "DUPLICATE "}, []string{"rejected", "duplicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			next := PublisherFunc(func(_ context.Context, event *ValidationCompletedEvent) error {
				got = append(got, event.Outcome)
				return nil
			})
			pub := NewOutcomeFilter(next, tt.outcomes...)
			for _, outcome := range []string{"accepted", "rejected", "duplicate"} {
				if err := pub.PublishValidated(context.Background(), &ValidationCompletedEvent{Outcome: outcome}); err != nil {
					t.Fatalf("%s - publish: %v", publisherTestPrefix, err)
				}
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("%s - published %v, want %v", publisherTestPrefix, got, tt.want)
			}
		})
	}
}

func TestNewValidationCompletedEvent(t *testing.T) {
	now := time.Date(2022, 11, 21, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	env := message.Envelope{
		Sender: message.Participant{Domain: "agr.example.com", Role: message.RoleAGR},
		Payload: &message.FlexOffer{Header: message.Header{
			MessageID:       "offer-1",
			ConversationID:  "conv-1",
			SenderDomain:    "agr.example.com",
			RecipientDomain: "dso.example.com",
		}},
	}

	first := NewValidationCompletedEvent(env, "accepted", now)
	second := NewValidationCompletedEvent(env, "accepted", now)

	if _, err := uuid.Parse(first.EventID); err != nil {
		t.Errorf("%s - EventID %q is not a uuid: %v", publisherTestPrefix, first.EventID, err)
	}
	if first.EventID == second.EventID {
		t.Errorf("%s - expected distinct event ids", publisherTestPrefix)
	}
	if first.Direction != "Incoming" {
		t.Errorf("%s - Direction = %q, want Incoming", publisherTestPrefix, first.Direction)
	}
	if first.Kind != "FlexOffer" || first.MessageID != "offer-1" || first.ConversationID != "conv-1" {
		t.Errorf("%s - unexpected identity fields: %+v", publisherTestPrefix, first)
	}
	if first.Timestamp != "2022-11-21T12:00:00Z" {
		t.Errorf("%s - Timestamp = %q, want UTC RFC3339", publisherTestPrefix, first.Timestamp)
	}
}
