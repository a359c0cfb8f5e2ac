// Package mfa seals second-factor seeds before they reach a credential store.
package mfa

// Purpose separates ciphertexts that share a key.
type Purpose string

const PurposeOTPSeed Purpose = "otp_seed"

// Scope is bound to every ciphertext as GCM additional data, so a sealed
// seed copied onto another account fails to open.
type Scope struct {
	Username string
	Purpose  Purpose
}

// Encryptor seals and opens small secrets. Sealed values are printable and
// safe to store in text columns or JSON.
type Encryptor interface {
	Seal(plaintext string, scope Scope) (string, error)
	Open(sealed string, scope Scope) (string, error)
}
