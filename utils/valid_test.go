package utils

import "testing"

func TestSanitizeEmail(t *testing.T) {
	got, err := SanitizeEmail("  Operator@Zara.Example  ")
	if err != nil {
		t.Fatalf("SanitizeEmail: %v", err)
	}
	if got != "operator@zara.example" {
		t.Errorf("SanitizeEmail = %q, want lowercased trimmed address", got)
	}

	for _, bad := range []string{"", "not-an-email", "a@b", "user@"} {
		if _, err := SanitizeEmail(bad); err == nil {
			t.Errorf("SanitizeEmail(%q) accepted an invalid address", bad)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("press3room8"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
	for _, bad := range []string{"short1", "lettersonly", "12345678"} {
		if err := ValidatePassword(bad); err == nil {
			t.Errorf("ValidatePassword(%q) accepted a weak password", bad)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	got := SanitizeInput("  <b>hello</b>\x00  ")
	if got != "&lt;b&gt;hello&lt;/b&gt;" {
		t.Errorf("SanitizeInput = %q", got)
	}
}
