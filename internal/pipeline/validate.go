package pipeline

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/invoice-inbox/internal/entity"
)

// markerPhrase must appear in the subject (case-insensitive) for an email to
// be treated as a tech-vendor invoice.
const markerPhrase = "tech invoice"

// Eligibility is the gate's decision for one inbound email.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// ValidateEmail decides whether an inbound email is eligible for pipeline
// processing. Rules run in order and the first failure wins. The duplicate
// check scans only a recent page of records, so it is best-effort: a
// duplicate outside the window slips through (an accepted gap, see
// DuplicateWindow). No side effects.
func (p *Processor) ValidateEmail(ctx context.Context, email entity.EmailData) (Eligibility, error) {
	if !strings.Contains(strings.ToLower(email.Subject), markerPhrase) {
		return Eligibility{Reason: "subject lacks marker phrase"}, nil
	}

	if strings.TrimSpace(email.Content) == "" {
		return Eligibility{Reason: "empty content"}, nil
	}

	recent, err := p.repo.List(ctx, p.duplicateWindow, 0)
	if err != nil {
		p.logger.Error("pipeline.validate.list_failed", "email_id", email.ID, "error", err)
		return Eligibility{}, err
	}
	for _, inv := range recent {
		if inv.EmailID == email.ID {
			return Eligibility{Reason: "already processed"}, nil
		}
	}

	return Eligibility{Eligible: true}, nil
}
