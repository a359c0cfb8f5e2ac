// Package hash provides password hashing behind a small interface.
//
// Only the encoded hash is stored; Verify re-derives the key from the
// plaintext and compares in constant time. The Argon2id implementation
// uses one fixed, memory-hard parameter set and treats any other encoding
// as a mismatch.
package hash
