package util

import "strings"

// DigitsOnly strips every non-digit character from s. Transport addresses
// like "whatsapp:+5511999990000" normalize to "5511999990000".
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UserID derives the stable record key for a sender. The WhatsApp account id
// takes precedence over the transport address; when neither carries digits
// the raw sender is used, and an empty sender maps to "anon".
func UserID(sender, waID string) string {
	if d := DigitsOnly(waID); d != "" {
		return d
	}
	if d := DigitsOnly(sender); d != "" {
		return d
	}
	if sender != "" {
		return sender
	}
	return "anon"
}
