package secretbox

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(fill byte) string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = fill + byte(i)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()
	box, err := New(testKey(1))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}

	msg := `{"ok":true,"accessToken":"TH-abc ✓"}`
	sealed, err := box.Seal([]byte(msg))
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}
	plain, err := box.Open(sealed)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if string(plain) != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", plain, msg)
	}
}

func TestOpen_DetectsTamper(t *testing.T) {
	t.Parallel()
	box, err := New(testKey(200))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}

	sealed, err := box.Seal([]byte("top secret"))
	if err != nil {
		t.Fatalf("Seal err: %v", err)
	}
	parts := strings.Split(sealed, "|")
	if len(parts) != 2 {
		t.Fatalf("unexpected sealed format")
	}
	// corromper un byte del ciphertext (base64 -> bytes -> flip -> base64)
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatal(err)
	}
	bs[0] ^= 0x01
	corrupted := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	if _, err := box.Open(corrupted); err == nil {
		t.Fatalf("expected auth error, got nil")
	}
}

func TestNew_RejectsBadKeys(t *testing.T) {
	t.Parallel()
	if _, err := New("not-base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := New(short); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestOpen_RejectsBadFormat(t *testing.T) {
	t.Parallel()
	box, err := New(testKey(7))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := box.Open("sin-separador"); err == nil {
		t.Fatalf("expected format error")
	}
}
