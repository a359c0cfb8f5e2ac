package mfa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sealed format before base64: uint16 version | 12-byte nonce | ciphertext+tag.
const (
	aesGCMVersion uint16 = 1
	gcmNonceSize         = 12
	headerSize           = 2 + gcmNonceSize
	aesKeyLen            = 32
)

var (
	ErrInvalidKeyLength  = errors.New("mfa: key must be 32 bytes")
	ErrPlaintextEmpty    = errors.New("mfa: plaintext is empty")
	ErrMalformedSealed   = errors.New("mfa: sealed value is malformed")
	ErrUnsupportedFormat = errors.New("mfa: unsupported sealed format version")
	ErrOpenFailed        = errors.New("mfa: open failed")
)

// AESGCM is an Encryptor using AES-256-GCM with one static key.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds the encryptor from a base64 encoded 32-byte key.
func NewAESGCM(keyB64 string) (*AESGCM, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("mfa: decode key: %w", err)
	}
	if len(key) != aesKeyLen {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidKeyLength, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("mfa: aes init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("mfa: gcm init: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

func (e *AESGCM) Seal(plaintext string, scope Scope) (string, error) {
	if plaintext == "" {
		return "", ErrPlaintextEmpty
	}

	out := make([]byte, headerSize, headerSize+len(plaintext)+e.aead.Overhead())
	binary.BigEndian.PutUint16(out[:2], aesGCMVersion)
	if _, err := io.ReadFull(rand.Reader, out[2:headerSize]); err != nil {
		return "", fmt.Errorf("mfa: nonce: %w", err)
	}

	out = e.aead.Seal(out, out[2:headerSize], []byte(plaintext), scopeAAD(scope))

	return base64.RawStdEncoding.EncodeToString(out), nil
}

func (e *AESGCM) Open(sealed string, scope Scope) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) <= headerSize {
		return "", ErrMalformedSealed
	}

	if v := binary.BigEndian.Uint16(raw[:2]); v != aesGCMVersion {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedFormat, v)
	}

	plain, err := e.aead.Open(nil, raw[2:headerSize], raw[headerSize:], scopeAAD(scope))
	if err != nil {
		// wrong key, wrong scope and tampering are indistinguishable on purpose
		return "", ErrOpenFailed
	}

	return string(plain), nil
}

// scopeAAD hashes a labelled canonical form so the AAD has a fixed length and
// no separator ambiguity.
func scopeAAD(s Scope) []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "username=%s\npurpose=%s\n", s.Username, s.Purpose))
	return sum[:]
}
