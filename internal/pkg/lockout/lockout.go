// Package lockout tracks failed authentication attempts per username and
// temporarily locks a username once the failure threshold is reached.
//
// Reaching the threshold sets the lock and resets the failure count in the
// same step. Expired locks are treated as inactive on read without requiring
// an explicit reset.
package lockout

import (
	"context"
	"errors"
	"time"
)

// Default policy values.
const (
	DefaultMaxFailures = 5
	DefaultDuration    = 10 * time.Minute
)

// ErrLeaseTimeout is returned by Acquire when the per-username guard could not
// be obtained before the context or retry budget ran out.
var ErrLeaseTimeout = errors.New("lockout: lease not acquired")

// Policy holds the failure threshold and lock duration.
type Policy struct {
	MaxFailures int
	Duration    time.Duration
}

func (p Policy) normalize() Policy {
	if p.MaxFailures <= 0 {
		p.MaxFailures = DefaultMaxFailures
	}
	if p.Duration <= 0 {
		p.Duration = DefaultDuration
	}

	return p
}

// Status is the lockout view of one username at a point in time.
type Status struct {
	// Locked is true while now < lock expiry.
	Locked bool
	// Remaining is the time left on a live lock.
	Remaining time.Duration
	// AttemptsRemaining is how many failures are left before a lock; zero when locked.
	AttemptsRemaining int
}

// Tracker is the per-username failure counter.
//
// Every check-then-update sequence for one username must run under the guard
// returned by Acquire.
type Tracker interface {
	// CheckLocked is a pure read of the current state compared to now.
	CheckLocked(ctx context.Context, username string, now time.Time) (Status, error)
	// RecordFailure counts a failed attempt. A failure recorded while a lock
	// is live reports that lock and is not counted.
	RecordFailure(ctx context.Context, username string, now time.Time) (Status, error)
	// RecordSuccess clears any state kept for username.
	RecordSuccess(ctx context.Context, username string) error
	// Acquire blocks until the caller holds the guard for username.
	Acquire(ctx context.Context, username string) (release func(), err error)
	// Release administratively removes any failure count and lock.
	Release(ctx context.Context, username string) error
}
