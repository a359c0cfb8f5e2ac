// Package otp generates and verifies time-based one-time passwords (RFC 6238).
//
// Secrets are base32 strings produced once at provisioning; codes are six
// digits over a 30 second step by default. Verification accepts a configurable
// number of adjacent steps to absorb clock drift.
package otp
