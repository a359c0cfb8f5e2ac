package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a secret and provisioning URI for an account name.
	Generate(accountName string) (secret string, uri string, err error)
	// Validate checks whether a code is valid at the given time using the configured drift.
	Validate(code, secret string, at time.Time) bool
	// ValidateWithDrift checks a code against the current step and driftSteps steps on either side.
	ValidateWithDrift(code, secret string, at time.Time, driftSteps uint) bool
	// GenerateCode creates a TOTP code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
	// Remaining reports how long the code for at stays current.
	Remaining(at time.Time) time.Duration
}

// TOTP implements OTP using the Time-based One-Time Password algorithm.
type TOTP struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period. A skew of 0 accepts only the current step.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// Generate creates a secret and provisioning URI for an account name.
func (o *TOTP) Generate(accountName string) (secret string, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// Validate checks whether a code is valid at the given time.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	return o.ValidateWithDrift(code, secret, at, o.skew)
}

// ValidateWithDrift checks whether a code is valid within driftSteps periods of at.
//
// Malformed secrets and codes yield false.
func (o *TOTP) ValidateWithDrift(code, secret string, at time.Time, driftSteps uint) bool {
	if code == "" || secret == "" {
		return false
	}

	rv, err := totp.ValidateCustom(code, secret, at, o.opts(driftSteps))

	return rv && err == nil
}

// GenerateCode creates a TOTP code for the given secret and time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts(0))
}

// Remaining reports how long the code for at stays current.
func (o *TOTP) Remaining(at time.Time) time.Duration {
	period := time.Duration(o.period) * time.Second
	elapsed := time.Duration(at.UnixNano()) % period

	return period - elapsed
}

func (o *TOTP) opts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Skew:      skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
