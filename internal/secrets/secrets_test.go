package secrets

import (
	"errors"
	"strings"
	"testing"

	"github.com/reachcraft/messaging/internal/errs"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	box, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sealed, err := box.Encrypt("twilio-auth-token-secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if strings.Contains(sealed, "twilio-auth-token-secret") {
		t.Error("ciphertext must not contain the plaintext")
	}

	opened, err := box.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if opened != "twilio-auth-token-secret" {
		t.Errorf("round trip produced %q", opened)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	box, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a, _ := box.Encrypt("secret")
	b, _ := box.Encrypt("secret")
	if a == b {
		t.Error("two encryptions of the same plaintext must differ")
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "not hex", key: strings.Repeat("zz", 32)},
		{name: "too short", key: "0001020304"},
		{name: "too long", key: strings.Repeat("00", 48)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.key); err == nil {
				t.Error("expected key rejection")
			}
		})
	}
}

func TestDecryptFailuresAreClassified(t *testing.T) {
	box, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	otherBox, err := New(strings.Repeat("ff", 32))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sealedElsewhere, _ := otherBox.Encrypt("secret")

	tests := []struct {
		name  string
		input string
	}{
		{name: "not base64", input: "%%%not-base64%%%"},
		{name: "too short", input: "AAAA"},
		{name: "wrong key", input: sealedElsewhere},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := box.Decrypt(tt.input)
			if !errors.Is(err, errs.ErrDecryptFailed) {
				t.Errorf("expected decrypt-failed classification, got %v", err)
			}
		})
	}
}
