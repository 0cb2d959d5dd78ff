package crypto

import (
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestSealStringRoundTrip(t *testing.T) {
	svc, err := New(testKey)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, err := svc.SealString("AO06004000001234567890123")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !strings.HasPrefix(sealed, sealedPrefix) {
		t.Fatalf("expected sealed prefix, got %q", sealed)
	}
	plain, err := svc.OpenString(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "AO06004000001234567890123" {
		t.Fatalf("unexpected plain text %q", plain)
	}
}

func TestSealStringWithoutKeyIsPassThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, err := svc.SealString("5417000000")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed != "5417000000" {
		t.Fatalf("expected pass-through, got %q", sealed)
	}
}

func TestOpenSealedWithoutKeyFails(t *testing.T) {
	keyed, _ := New(testKey)
	sealed, _ := keyed.SealString("secret")

	plain, _ := New("")
	if _, err := plain.OpenString(sealed); err == nil {
		t.Fatal("expected error opening sealed value without key")
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("abcd"); err == nil {
		t.Fatal("expected error for short key")
	}
}
