package utils

import (
	"testing"
	"time"
)

func TestCredentialsRoundTrip(t *testing.T) {
	creds := RememberedCredentials{
		Email:     "operator@zara.example",
		Role:      "OPERATOR",
		UserID:    "64f0c0ffee0000000000abcd",
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}

	encrypted, err := EncryptCredentials(creds)
	if err != nil {
		t.Fatalf("EncryptCredentials: %v", err)
	}
	if encrypted == "" {
		t.Fatal("EncryptCredentials returned empty ciphertext")
	}

	decrypted, err := DecryptCredentials(encrypted)
	if err != nil {
		t.Fatalf("DecryptCredentials: %v", err)
	}
	if decrypted.Email != creds.Email || decrypted.Role != creds.Role || decrypted.UserID != creds.UserID {
		t.Errorf("round trip changed credentials: %+v", decrypted)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	if _, err := DecryptCredentials("not-base64!"); err == nil {
		t.Error("DecryptCredentials accepted invalid base64")
	}
	if _, err := DecryptCredentials("dG9vc2hvcnQ="); err == nil {
		t.Error("DecryptCredentials accepted a truncated ciphertext")
	}
}

func TestGenerateRememberMeToken(t *testing.T) {
	a, err := GenerateRememberMeToken()
	if err != nil {
		t.Fatalf("GenerateRememberMeToken: %v", err)
	}
	b, err := GenerateRememberMeToken()
	if err != nil {
		t.Fatalf("GenerateRememberMeToken: %v", err)
	}
	if a == "" || a == b {
		t.Error("tokens are empty or not unique")
	}
}
