package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the cost parameters embedded in every encoded hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params is the fixed parameter set used for account passwords.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2id implements Hash using Argon2id with a fixed parameter set.
//
// Hashes produced with any other parameters, version or algorithm are
// rejected by Verify.
type Argon2id struct {
	params Argon2Params
	pepper string
	sema   chan struct{}

	dummySalt []byte
	dummyKey  []byte
}

// NewArgon2id returns an Argon2id hasher using DefaultArgon2Params.
//
// maxConcurrent bounds how many derivations may run at once; 0 disables the limiter.
func NewArgon2id(pepper string, maxConcurrent int) *Argon2id {
	return NewArgon2idWithParams(DefaultArgon2Params, pepper, maxConcurrent)
}

// NewArgon2idWithParams returns an Argon2id hasher with explicit parameters.
func NewArgon2idWithParams(p Argon2Params, pepper string, maxConcurrent int) *Argon2id {
	a := &Argon2id{
		params:    p,
		pepper:    pepper,
		dummySalt: make([]byte, p.SaltLength),
		dummyKey:  make([]byte, p.KeyLength),
	}
	if maxConcurrent > 0 {
		a.sema = make(chan struct{}, maxConcurrent)
	}

	//nolint:errcheck // crypto/rand.Read never returns an error on supported platforms
	rand.Read(a.dummySalt)
	//nolint:errcheck // same as above
	rand.Read(a.dummyKey)

	return a
}

// Hash takes a plaintext string and returns its PHC-encoded hash.
func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := a.derive(str, salt)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$%s$%s$%s",
		argon2.Version,
		a.paramString(),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return []byte(encoded), nil
}

// Verify checks if the given plaintext matches the encoded hash.
//
// Empty, malformed or incompatible hashes still cost one derivation so a
// rejected parse takes as long as a wrong password.
func (a *Argon2id) Verify(hashed, str string) bool {
	salt, want, ok := a.decode(hashed)
	if !ok {
		salt, want = a.dummySalt, a.dummyKey
	}

	got := a.derive(str, salt)
	match := subtle.ConstantTimeCompare(want, got) == 1

	return match && ok && str != ""
}

func (a *Argon2id) derive(str string, salt []byte) []byte {
	if a.sema != nil {
		a.sema <- struct{}{}
		defer func() { <-a.sema }()
	}

	return argon2.IDKey([]byte(str+a.pepper), salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)
}

func (a *Argon2id) paramString() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", a.params.Memory, a.params.Iterations, a.params.Parallelism)
}

// decode splits $argon2id$v=19$m=..,t=..,p=..$salt$key and checks every
// segment against the configured parameters.
func (a *Argon2id) decode(hashed string) (salt, key []byte, ok bool) {
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, false
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) || parts[3] != a.paramString() {
		return nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || uint32(len(salt)) != a.params.SaltLength {
		return nil, nil, false
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || uint32(len(key)) != a.params.KeyLength {
		return nil, nil, false
	}

	return salt, key, true
}
