package hash

import (
	"bytes"
	"testing"
)

func TestHashIsDeterministic(t *testing.T) {
	h := NewHMACSHA256("secret")

	first, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("the same input must hash to the same value")
	}
	if len(first) != 64 {
		t.Errorf("Hash() returned %d bytes, want 64 hex characters", len(first))
	}
}

func TestHashDependsOnSecret(t *testing.T) {
	a, _ := NewHMACSHA256("secret-a").Hash("123456")
	b, _ := NewHMACSHA256("secret-b").Hash("123456")

	if bytes.Equal(a, b) {
		t.Error("different secrets must produce different hashes")
	}
}

func TestVerify(t *testing.T) {
	h := NewHMACSHA256("secret")

	hashed, err := h.Hash("123456")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !h.Verify(string(hashed), "123456") {
		t.Error("Verify() = false for a matching code")
	}
	if h.Verify(string(hashed), "654321") {
		t.Error("Verify() = true for a mismatching code")
	}
	if h.Verify("not-a-hash", "123456") {
		t.Error("Verify() = true for garbage input")
	}
}
