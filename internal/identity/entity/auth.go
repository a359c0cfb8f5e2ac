package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
)

// RecordVersion is the only credential record shape accepted by any store.
const RecordVersion = 1

// ErrMalformedRecord is returned when a stored credential record does not
// decode to exactly the current shape. Stores never guess at other layouts.
var ErrMalformedRecord = errors.New("identity: malformed credential record")

// AuthRecord is the single credential record kept per username.
type AuthRecord struct {
	Username     string
	PasswordHash string
	Factor       SecondFactor
	Clearance    blp.Level
	CreatedAt    time.Time
}

// SecondFactor is either NoSecondFactor or TOTPFactor.
type SecondFactor interface {
	Kind() FactorKind
	secondFactor()
}

// NoSecondFactor marks an account that authenticates with a password only.
type NoSecondFactor struct{}

func (NoSecondFactor) Kind() FactorKind { return FactorNone }
func (NoSecondFactor) secondFactor()    {}

// TOTPFactor requires a time-based one-time code derived from Secret.
type TOTPFactor struct {
	Secret string
}

func (TOTPFactor) Kind() FactorKind { return FactorTOTP }
func (TOTPFactor) secondFactor()    {}

// FactorKind is the persisted tag of a SecondFactor.
type FactorKind string

const (
	FactorNone FactorKind = "none"
	FactorTOTP FactorKind = "totp"
)

// FactorSecret returns the secret persisted for f, empty for NoSecondFactor.
func FactorSecret(f SecondFactor) string {
	if t, ok := f.(TOTPFactor); ok {
		return t.Secret
	}

	return ""
}

// NewSecondFactor rebuilds a factor from its stored tag and secret. A tag
// and secret that disagree are malformed.
func NewSecondFactor(kind FactorKind, secret string) (SecondFactor, error) {
	switch kind {
	case FactorNone:
		if secret != "" {
			return nil, fmt.Errorf("%w: secret present on factor %q", ErrMalformedRecord, kind)
		}
		return NoSecondFactor{}, nil
	case FactorTOTP:
		if secret == "" {
			return nil, fmt.Errorf("%w: missing totp secret", ErrMalformedRecord)
		}
		return TOTPFactor{Secret: secret}, nil
	default:
		return nil, fmt.Errorf("%w: unknown factor %q", ErrMalformedRecord, kind)
	}
}

// CheckRecord validates the fields every store reads back.
func CheckRecord(version int, r *AuthRecord) error {
	switch {
	case version != RecordVersion:
		return fmt.Errorf("%w: version %d", ErrMalformedRecord, version)
	case r.Username == "" || r.PasswordHash == "":
		return fmt.Errorf("%w: empty username or hash", ErrMalformedRecord)
	case !r.Clearance.Valid():
		return fmt.Errorf("%w: clearance %d", ErrMalformedRecord, r.Clearance)
	case r.Factor == nil:
		return fmt.Errorf("%w: missing factor", ErrMalformedRecord)
	}

	return nil
}
