package validation

import (
	"bytes"
	"context"
	"fmt"

	"github.com/morezero/uftp-compliance/pkg/history"
	"github.com/morezero/uftp-compliance/pkg/message"
)

// DuplicateOutcome classifies a message id against stored history.
type DuplicateOutcome int

const (
	// New: no stored message uses this id.
	New DuplicateOutcome = iota
	// Duplicate: the same message was already accepted; redelivery is idempotent.
	Duplicate
	// ReusedIdDifferentContent: the id is taken by a message of another kind or other content.
	ReusedIdDifferentContent
)

func (o DuplicateOutcome) String() string {
	switch o {
	case New:
		return "New"
	case Duplicate:
		return "Duplicate"
	case ReusedIdDifferentContent:
		return "ReusedIdDifferentContent"
	}
	return fmt.Sprintf("DuplicateOutcome(%d)", int(o))
}

// DuplicateDetector classifies message id reuse.
type DuplicateDetector struct {
	messages      history.Messages
	canonicalizer message.Canonicalizer
}

// NewDuplicateDetector creates a detector. A nil canonicalizer selects message.JSONCanonicalizer.
func NewDuplicateDetector(messages history.Messages, canonicalizer message.Canonicalizer) *DuplicateDetector {
	if canonicalizer == nil {
		canonicalizer = message.JSONCanonicalizer{}
	}
	return &DuplicateDetector{messages: messages, canonicalizer: canonicalizer}
}

// Classify looks up a stored message with the same id and domains and compares it with p.
func (d *DuplicateDetector) Classify(ctx context.Context, p message.Payload) (DuplicateOutcome, error) {
	h := p.Head()
	prior, err := d.messages.FindDuplicate(ctx, h.MessageID, h.SenderDomain, h.RecipientDomain)
	if err != nil {
		return New, fmt.Errorf("validation:duplicate - lookup of %s failed: %w", h.MessageID, err)
	}
	if prior == nil {
		return New, nil
	}
	if prior.Kind() != p.Kind() {
		return ReusedIdDifferentContent, nil
	}

	a, err := d.canonicalizer.Canonicalize(prior)
	if err != nil {
		return New, fmt.Errorf("validation:duplicate - canonicalize stored %s: %w", h.MessageID, err)
	}
	b, err := d.canonicalizer.Canonicalize(p)
	if err != nil {
		return New, fmt.Errorf("validation:duplicate - canonicalize %s: %w", h.MessageID, err)
	}
	if bytes.Equal(a, b) {
		return Duplicate, nil
	}
	return ReusedIdDifferentContent, nil
}
