package entity

import (
	"time"

	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
)

// AuthStatus is the terminal state of one authentication run.
type AuthStatus int8

const (
	AuthRejected AuthStatus = iota
	AuthLocked
	AuthAuthenticated
)

func (s AuthStatus) String() string {
	switch s {
	case AuthAuthenticated:
		return "authenticated"
	case AuthLocked:
		return "locked"
	default:
		return "rejected"
	}
}

// RejectReason explains an AuthRejected outcome.
type RejectReason int8

const (
	ReasonNone RejectReason = iota
	ReasonInvalidInput
	ReasonUnknownUser
	ReasonBadPassword
	ReasonBadMFACode
)

func (r RejectReason) String() string {
	switch r {
	case ReasonInvalidInput:
		return "invalid_input"
	case ReasonUnknownUser:
		return "unknown_user"
	case ReasonBadPassword:
		return "bad_password"
	case ReasonBadMFACode:
		return "bad_mfa_code"
	default:
		return "none"
	}
}

// AuthOutcome is what Authenticate reports. Subject is set only when
// Status is AuthAuthenticated.
type AuthOutcome struct {
	Status            AuthStatus
	Reason            RejectReason
	Subject           subject.Subject
	LockRemaining     time.Duration
	AttemptsRemaining int
}

func Rejected(reason RejectReason) *AuthOutcome {
	return &AuthOutcome{Status: AuthRejected, Reason: reason}
}

func Locked(remaining time.Duration) *AuthOutcome {
	return &AuthOutcome{Status: AuthLocked, LockRemaining: remaining}
}

func Authenticated(s subject.Subject) *AuthOutcome {
	return &AuthOutcome{Status: AuthAuthenticated, Subject: s}
}
