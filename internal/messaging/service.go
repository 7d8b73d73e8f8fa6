// Package messaging provides the outbound message delivery abstraction and
// its transports: Whatsmeow, Twilio, and a dry-run fallback.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/util"
)

// Service defines a pluggable message delivery abstraction. Send failures are
// non-fatal to callers; the dispatcher logs and retries on a later tick.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates a recipient identifier and
	// returns its canonical form for this transport.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error
}

// canonicalizeDigits is the shared recipient rule: strip the transport
// prefix and punctuation down to bare digits.
func canonicalizeDigits(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	digits := util.DigitsOnly(recipient)
	if digits == "" {
		return "", fmt.Errorf("recipient %q contains no digits", recipient)
	}
	return digits, nil
}

// DryRunService logs messages instead of delivering them. Used when no
// transport credentials are configured, so the rest of the system keeps
// working end to end.
type DryRunService struct{}

// NewDryRunService creates a DryRunService.
func NewDryRunService() *DryRunService {
	slog.Info("Messaging running in dry-run mode; outbound messages will only be logged")
	return &DryRunService{}
}

// ValidateAndCanonicalizeRecipient applies the shared digits rule.
func (s *DryRunService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizeDigits(recipient)
}

// SendMessage logs the message and reports success.
func (s *DryRunService) SendMessage(ctx context.Context, to string, body string) error {
	preview := body
	if len(preview) > 90 {
		preview = preview[:90] + "..."
	}
	slog.Info("Dry-run send", "to", to, "body", preview)
	return nil
}
