package hash

// Hash hashes secrets and verifies plaintext against a stored hash.
type Hash interface {
	// Hash returns the encoded hash of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches hashed. It never returns an error:
	// anything that cannot be verified is a mismatch.
	Verify(hashed, str string) bool
}
