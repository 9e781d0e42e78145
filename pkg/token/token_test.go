package token

import (
	"strings"
	"testing"
)

func TestNew_URLSafe(t *testing.T) {
	tok, err := New()
	if err != nil {
		t.Fatalf("New should succeed: %v", err)
	}
	if len(tok) != 43 { // 32 bytes, unpadded base64url
		t.Errorf("expected length 43, got %d", len(tok))
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Errorf("token is not URL-safe: %s", tok)
	}
}

func TestNew_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := New()
		if err != nil {
			t.Fatalf("New should succeed: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %s", tok)
		}
		seen[tok] = true
	}
}
