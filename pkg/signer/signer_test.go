package signer

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"testing"
)

func TestProviders_SignVerify(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	providers := []struct {
		name string
		key  []byte
	}{
		{"hmac-sha256", []byte("secret")},
		{"blake2b-256", []byte("secret")},
		{"ed25519", seed},
	}
	data := []byte("descriptor and sections")

	for _, tt := range providers {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.name, tt.key)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if p.Name() != tt.name {
				t.Fatalf("Name = %q, want %q", p.Name(), tt.name)
			}
			sig, err := p.Sign(data)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			if len(sig) != p.MaxLen() {
				t.Fatalf("len(sig) = %d, want %d", len(sig), p.MaxLen())
			}
			if !p.Verify(data, sig) {
				t.Fatalf("Verify = false, want true")
			}
			sig[0] ^= 1
			if p.Verify(data, sig) {
				t.Fatalf("Verify(tampered sig) = true")
			}
			sig[0] ^= 1
			if p.Verify(append([]byte("x"), data...), sig) {
				t.Fatalf("Verify(tampered data) = true")
			}
		})
	}
}

func TestEd25519Verifier(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	s, _ := NewEd25519(priv)
	v, err := NewEd25519Verifier(pub)
	if err != nil {
		t.Fatalf("NewEd25519Verifier: %v", err)
	}
	sig, _ := s.Sign([]byte("a"))
	if !v.Verify([]byte("a"), sig) {
		t.Fatalf("Verify = false, want true")
	}
	if _, err := v.Sign([]byte("a")); !errors.Is(err, ErrNoPrivateKey) {
		t.Fatalf("Sign err = %v, want %v", err, ErrNoPrivateKey)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New("hmac", nil); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("err = %v, want %v", err, ErrEmptyKey)
	}
	if _, err := New("blake2b", make([]byte, 65)); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidKeySize)
	}
	if _, err := New("ed25519", []byte("short")); !errors.Is(err, ErrInvalidKeySize) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidKeySize)
	}
	if _, err := New("rsa", []byte("k")); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
