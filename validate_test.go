package authcore

import (
	"strings"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  Alice@Example.COM ": "alice@example.com",
		"bob@example.com":      "bob@example.com",
		"\tCAROL@X.IO\n":       "carol@x.io",
	}

	for in, want := range cases {
		if got := normalizeEmail(in); got != want {
			t.Errorf("normalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmailLooksValid(t *testing.T) {
	valid := []string{"a@b.co", "first.last@sub.example.com", "x+tag@y.io"}
	invalid := []string{"", "plain", "@no-local.com", "no-at.example.com", "a@b", "a@b.", "a@@b.com", "trailing@"}

	for _, e := range valid {
		if !emailLooksValid(e) {
			t.Errorf("emailLooksValid(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if emailLooksValid(e) {
			t.Errorf("emailLooksValid(%q) = true, want false", e)
		}
	}
}

func TestValidationErrorRendering(t *testing.T) {
	err := &ValidationError{Fields: map[string][]string{
		"password": {"required"},
		"email":    {"required", "invalid format"},
	}}

	msg := err.Error()
	if !strings.HasPrefix(msg, "validation failed: ") {
		t.Fatalf("message = %q", msg)
	}
	// Fields render in sorted order for stable output.
	if strings.Index(msg, "email") > strings.Index(msg, "password") {
		t.Fatalf("fields not sorted: %q", msg)
	}

	if (&ValidationError{}).Error() != "validation failed" {
		t.Fatal("empty error rendering changed")
	}
}
