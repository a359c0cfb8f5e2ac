// Package clock provides a tiny time abstraction.
//
// Lockout expiry and TOTP time steps are computed from a Clocker rather than
// time.Now so both can be driven deterministically: the server uses
// TimeClocker, tests use Manual.
package clock
