package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MeteOShape/shapebot/internal/models"
	"github.com/MeteOShape/shapebot/internal/whatsapp"
)

func TestCanonicalizeDigits(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"whatsapp:+5511999998888", "5511999998888", false},
		{"+55 (11) 99999-8888", "5511999998888", false},
		{"5511999998888", "5511999998888", false},
		{"", "", true},
		{"whatsapp:", "", true},
	}
	for _, tc := range cases {
		got, err := canonicalizeDigits(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("canonicalizeDigits(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("canonicalizeDigits(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("canonicalizeDigits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalizeDigitsEmptyRecipientError(t *testing.T) {
	_, err := canonicalizeDigits("")
	if !errors.Is(err, models.ErrEmptyRecipient) {
		t.Errorf("expected ErrEmptyRecipient, got %v", err)
	}
}

func TestDryRunServiceSendAlwaysSucceeds(t *testing.T) {
	svc := NewDryRunService()
	if err := svc.SendMessage(context.Background(), "5511999998888", strings.Repeat("x", 500)); err != nil {
		t.Errorf("dry-run send should not fail: %v", err)
	}
}

func TestSplitSegmentsShortBody(t *testing.T) {
	segs := splitSegments("hello", 100)
	if len(segs) != 1 || segs[0] != "hello" {
		t.Errorf("expected single segment, got %v", segs)
	}
}

func TestSplitSegmentsPrefersNewlines(t *testing.T) {
	body := strings.Repeat("a", 60) + "\n" + strings.Repeat("b", 60)
	segs := splitSegments(body, 80)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %v", len(segs), segs)
	}
	if segs[0] != strings.Repeat("a", 60) {
		t.Errorf("first segment should end at the newline, got %q", segs[0])
	}
	if segs[1] != strings.Repeat("b", 60) {
		t.Errorf("second segment = %q", segs[1])
	}
}

func TestSplitSegmentsHardCutWithoutNewlines(t *testing.T) {
	body := strings.Repeat("x", 250)
	segs := splitSegments(body, 100)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	total := 0
	for _, s := range segs {
		if len(s) > 100 {
			t.Errorf("segment exceeds max: %d", len(s))
		}
		total += len(s)
	}
	if total != 250 {
		t.Errorf("segments lost content: total %d", total)
	}
}

func TestWhatsAppServiceCanonicalize(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())
	got, err := svc.ValidateAndCanonicalizeRecipient("+55 11 99999-8888")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5511999998888" {
		t.Errorf("canonical = %q", got)
	}
}
