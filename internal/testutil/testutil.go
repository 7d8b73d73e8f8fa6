// Package testutil provides common test helpers shared across ShapeBot tests.
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/util"
)

// SentMessage is one message captured by a RecorderService.
type SentMessage struct {
	To   string
	Body string
}

// RecorderService implements messaging.Service by recording outbound
// messages. Set FailWith to make every send fail.
type RecorderService struct {
	mu       sync.Mutex
	Messages []SentMessage
	FailWith error
}

// NewRecorderService creates an empty RecorderService.
func NewRecorderService() *RecorderService {
	return &RecorderService{}
}

// ValidateAndCanonicalizeRecipient reduces the recipient to bare digits, the
// same rule the real transports apply.
func (r *RecorderService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", models.ErrEmptyRecipient
	}
	digits := util.DigitsOnly(recipient)
	if digits == "" {
		return "", models.ErrEmptyRecipient
	}
	return digits, nil
}

// SendMessage records the message, or fails when FailWith is set.
func (r *RecorderService) SendMessage(ctx context.Context, to string, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.Messages = append(r.Messages, SentMessage{To: to, Body: body})
	return nil
}

// Sent returns a copy of the captured messages.
func (r *RecorderService) Sent() []SentMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SentMessage(nil), r.Messages...)
}

// AssertHTTPStatus fails the test when the status codes differ.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// IntPtr returns a pointer to v, for optional profile fields in tests.
func IntPtr(v int) *int { return &v }

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }
