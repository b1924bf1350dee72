// Package signer provides signature providers for the save-file trailer.
//
// Every provider signs the same byte range the SHA-256 footer covers and
// always returns exactly MaxLen bytes, so the final file size is known
// before the signature is computed.
package signer

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// Provider signs and verifies save-file bytes.
type Provider interface {
	// Name identifies the provider in logs and tooling output.
	Name() string

	// MaxLen is the exact signature length produced by Sign.
	MaxLen() int

	// Sign returns a signature over data.
	Sign(data []byte) ([]byte, error)

	// Verify reports whether sig is a valid signature over data.
	Verify(data, sig []byte) bool
}

var (
	ErrEmptyKey       = errors.New("signer: empty key")
	ErrInvalidKeySize = errors.New("signer: invalid key size")
	ErrNoPrivateKey   = errors.New("signer: verify-only provider cannot sign")
)

// HMAC signs with HMAC-SHA256 under a shared secret.
type HMAC struct {
	key []byte
}

// NewHMAC returns an HMAC-SHA256 provider.
func NewHMAC(key []byte) (*HMAC, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &HMAC{key: append([]byte(nil), key...)}, nil
}

func (h *HMAC) Name() string { return "hmac-sha256" }

func (h *HMAC) MaxLen() int { return sha256.Size }

func (h *HMAC) Sign(data []byte) ([]byte, error) {
	m := hmac.New(sha256.New, h.key)
	m.Write(data)
	return m.Sum(nil), nil
}

func (h *HMAC) Verify(data, sig []byte) bool {
	want, _ := h.Sign(data)
	return hmac.Equal(want, sig)
}

// Ed25519 signs with an Ed25519 key pair. A provider built from a public key
// alone can only verify.
type Ed25519 struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewEd25519 returns a provider that signs with priv.
func NewEd25519(priv ed25519.PrivateKey) (*Ed25519, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeySize
	}
	return &Ed25519{priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

// NewEd25519Verifier returns a verify-only provider.
func NewEd25519Verifier(pub ed25519.PublicKey) (*Ed25519, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, ErrInvalidKeySize
	}
	return &Ed25519{pub: pub}, nil
}

func (e *Ed25519) Name() string { return "ed25519" }

func (e *Ed25519) MaxLen() int { return ed25519.SignatureSize }

func (e *Ed25519) Sign(data []byte) ([]byte, error) {
	if e.priv == nil {
		return nil, ErrNoPrivateKey
	}
	return ed25519.Sign(e.priv, data), nil
}

func (e *Ed25519) Verify(data, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(e.pub, data, sig)
}

// BLAKE2b signs with keyed BLAKE2b-256.
type BLAKE2b struct {
	key []byte
}

// NewBLAKE2b returns a keyed BLAKE2b-256 provider. Keys are 1 to 64 bytes.
func NewBLAKE2b(key []byte) (*BLAKE2b, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	if len(key) > blake2b.Size {
		return nil, ErrInvalidKeySize
	}
	return &BLAKE2b{key: append([]byte(nil), key...)}, nil
}

func (b *BLAKE2b) Name() string { return "blake2b-256" }

func (b *BLAKE2b) MaxLen() int { return blake2b.Size256 }

func (b *BLAKE2b) Sign(data []byte) ([]byte, error) {
	h, err := blake2b.New256(b.key)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func (b *BLAKE2b) Verify(data, sig []byte) bool {
	want, err := b.Sign(data)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, sig) == 1
}

// New builds a provider by name. Ed25519 expects a 32-byte seed.
func New(name string, key []byte) (Provider, error) {
	switch name {
	case "hmac-sha256", "hmac":
		return NewHMAC(key)
	case "blake2b-256", "blake2b":
		return NewBLAKE2b(key)
	case "ed25519":
		if len(key) != ed25519.SeedSize {
			return nil, ErrInvalidKeySize
		}
		return NewEd25519(ed25519.NewKeyFromSeed(key))
	default:
		return nil, errors.New("signer: unknown provider: " + name)
	}
}
