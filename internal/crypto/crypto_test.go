package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("secret", "volume")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if len(a) != KeySize {
		t.Fatalf("key length = %d, want %d", len(a), KeySize)
	}

	b, _ := DeriveKey("secret", "volume")
	if !bytes.Equal(a, b) {
		t.Error("derivation is not deterministic")
	}

	c, _ := DeriveKey("secret", "other")
	if bytes.Equal(a, c) {
		t.Error("salt did not change the key")
	}

	if _, err := DeriveKey("", "volume"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty passphrase: got %v, want ErrInvalidKey", err)
	}
}

func TestSealOpen(t *testing.T) {
	s, err := NewPassphraseSealer("secret", "volume")
	if err != nil {
		t.Fatalf("NewPassphraseSealer failed: %v", err)
	}

	plain := []byte("pool and table bytes")
	sealed, err := s.Seal(plain)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealed) != len(plain)+s.Overhead() {
		t.Errorf("sealed length = %d, want %d", len(sealed), len(plain)+s.Overhead())
	}
	if bytes.Contains(sealed, plain) {
		t.Error("plaintext visible in sealed blob")
	}

	got, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("Open = %q, want %q", got, plain)
	}
}

func TestOpenWrongKey(t *testing.T) {
	s1, _ := NewPassphraseSealer("one", "volume")
	s2, _ := NewPassphraseSealer("two", "volume")

	sealed, err := s1.Seal([]byte("data"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := s2.Open(sealed); !errors.Is(err, ErrOpenFailed) {
		t.Errorf("got %v, want ErrOpenFailed", err)
	}
}

func TestOpenTooShort(t *testing.T) {
	s, _ := NewPassphraseSealer("secret", "volume")
	if _, err := s.Open([]byte{1, 2, 3}); !errors.Is(err, ErrSealedTooShort) {
		t.Errorf("got %v, want ErrSealedTooShort", err)
	}
}

func TestNewSealerKeySize(t *testing.T) {
	if _, err := NewSealer(make([]byte, 16)); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("got %v, want ErrInvalidKey", err)
	}
}
