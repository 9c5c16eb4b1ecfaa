package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rebuildja/lead-intake/internal/leads"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

// Service emails the operator team a summary of each captured lead.
type Service struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewService creates a lead notification service. Returns nil when
// either the sender or the destination address is missing, so callers
// can wire it unconditionally.
func NewService(email EmailSender, to string, logger *logging.Logger) *Service {
	if email == nil || to == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, to: to, logger: logger}
}

// LeadCaptured sends the summary email. Best effort only: the caller
// logs failures and never fails the submission over them.
func (s *Service) LeadCaptured(ctx context.Context, lead *leads.Lead) error {
	subject := fmt.Sprintf("New rebuild lead %s — %s", lead.LeadID, lead.FullName)

	var b strings.Builder
	fmt.Fprintf(&b, "Lead %s captured at %s\n\n", lead.LeadID, lead.Timestamp)
	fmt.Fprintf(&b, "Name: %s\n", lead.FullName)
	fmt.Fprintf(&b, "Phone: %s (%s)\n", lead.PrimaryPhone, lead.PreferredChannel)
	if lead.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	}
	if lead.Parish != "" {
		fmt.Fprintf(&b, "Parish: %s", lead.Parish)
		if lead.Community != "" {
			fmt.Fprintf(&b, " (%s)", lead.Community)
		}
		b.WriteString("\n")
	}
	if lead.RebuildType != "" {
		fmt.Fprintf(&b, "Rebuild type: %s\n", lead.RebuildType)
	}
	if lead.EstimatedBudget > 0 {
		fmt.Fprintf(&b, "Estimated budget: %.0f\n", lead.EstimatedBudget)
	}
	if lead.ComfortableMonthly > 0 {
		fmt.Fprintf(&b, "Comfortable monthly: %.0f\n", lead.ComfortableMonthly)
	}
	fmt.Fprintf(&b, "\nStage: %s\nNotes: %s\n", lead.Stage, lead.Notes)

	return s.email.Send(ctx, EmailMessage{
		To:      s.to,
		Subject: subject,
		Body:    b.String(),
	})
}
