package util

import "testing"

func TestDigitsOnly(t *testing.T) {
	cases := []struct{ in, want string }{
		{"whatsapp:+5511999990000", "5511999990000"},
		{"+55 (11) 99999-0000", "5511999990000"},
		{"abc", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := DigitsOnly(c.in); got != c.want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUserID(t *testing.T) {
	cases := []struct {
		sender, waID, want string
	}{
		{"whatsapp:+5511999990000", "5511999990000", "5511999990000"},
		{"whatsapp:+5511999990000", "", "5511999990000"},
		{"someone", "", "someone"},
		{"", "", "anon"},
	}
	for _, c := range cases {
		if got := UserID(c.sender, c.waID); got != c.want {
			t.Errorf("UserID(%q, %q) = %q, want %q", c.sender, c.waID, got, c.want)
		}
	}
}

func TestParseBoolEnv(t *testing.T) {
	t.Setenv("SHAPEBOT_TEST_BOOL", "yes")
	if !ParseBoolEnv("SHAPEBOT_TEST_BOOL", false) {
		t.Error("expected true for 'yes'")
	}
	t.Setenv("SHAPEBOT_TEST_BOOL", "banana")
	if !ParseBoolEnv("SHAPEBOT_TEST_BOOL", true) {
		t.Error("invalid value should fall back to default")
	}
	if ParseBoolEnv("SHAPEBOT_TEST_BOOL_UNSET", false) {
		t.Error("unset value should fall back to default")
	}
}
