package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// KEYS[1] state hash; ARGV now(ms), max failures, lock duration(ms), retention(ms).
// Returns {locked, remaining_ms, attempts_remaining}.
var recordFailureScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local dur = tonumber(ARGV[3])
local keep = tonumber(ARGV[4])

local lu = tonumber(redis.call('HGET', KEYS[1], 'lock_until') or '0')
if lu > now then
  return {1, lu - now, 0}
end

local n = redis.call('HINCRBY', KEYS[1], 'failures', 1)
if n >= max then
  redis.call('HSET', KEYS[1], 'failures', 0, 'lock_until', now + dur)
  redis.call('PEXPIRE', KEYS[1], dur + keep)
  return {1, dur, 0}
end

redis.call('PEXPIRE', KEYS[1], keep)
return {0, 0, max - n}
`)

// KEYS[1] lease key; ARGV[1] token.
var releaseLeaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisOptions configures the shared tracker.
type RedisOptions struct {
	Policy Policy
	// Prefix namespaces every key, default "lockout:".
	Prefix string
	// Retention is how long an idle failure count is kept, default 24h.
	Retention time.Duration
	// LeaseTTL bounds how long a crashed holder can block a username, default 5s.
	LeaseTTL time.Duration
	// LeaseWait is the total time Acquire retries before giving up, default 3s.
	LeaseWait time.Duration
}

// Redis is a Tracker shared by every process pointing at the same Redis.
//
// Counter updates run in a Lua script, so they are atomic on the server.
// Acquire is a SET NX lease holding a random token that only its owner can delete.
type Redis struct {
	client redis.UniversalClient
	opt    RedisOptions
}

// NewRedis returns a Redis-backed tracker.
func NewRedis(client redis.UniversalClient, opt RedisOptions) *Redis {
	opt.Policy = opt.Policy.normalize()
	if opt.Prefix == "" {
		opt.Prefix = "lockout:"
	}
	if opt.Retention <= 0 {
		opt.Retention = 24 * time.Hour
	}
	if opt.LeaseTTL <= 0 {
		opt.LeaseTTL = 5 * time.Second
	}
	if opt.LeaseWait <= 0 {
		opt.LeaseWait = 3 * time.Second
	}

	return &Redis{client: client, opt: opt}
}

func (r *Redis) stateKey(username string) string { return r.opt.Prefix + "state:" + username }
func (r *Redis) leaseKey(username string) string { return r.opt.Prefix + "lease:" + username }

// CheckLocked reads the state hash and compares the lock expiry to now.
func (r *Redis) CheckLocked(ctx context.Context, username string, now time.Time) (Status, error) {
	vals, err := r.client.HMGet(ctx, r.stateKey(username), "failures", "lock_until").Result()
	if err != nil {
		return Status{}, fmt.Errorf("lockout: read state: %w", err)
	}

	failures := parseInt(vals[0])
	lockUntil := parseInt(vals[1])
	nowMs := now.UnixMilli()

	if lockUntil > nowMs {
		return Status{Locked: true, Remaining: time.Duration(lockUntil-nowMs) * time.Millisecond}, nil
	}

	return Status{AttemptsRemaining: r.opt.Policy.MaxFailures - int(failures)}, nil
}

// RecordFailure increments the counter atomically and sets the lock at the threshold.
func (r *Redis) RecordFailure(ctx context.Context, username string, now time.Time) (Status, error) {
	res, err := recordFailureScript.Run(ctx, r.client,
		[]string{r.stateKey(username)},
		now.UnixMilli(),
		r.opt.Policy.MaxFailures,
		r.opt.Policy.Duration.Milliseconds(),
		r.opt.Retention.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Status{}, fmt.Errorf("lockout: record failure: %w", err)
	}
	if len(res) != 3 {
		return Status{}, fmt.Errorf("lockout: unexpected script reply of length %d", len(res))
	}

	return Status{
		Locked:            res[0] == 1,
		Remaining:         time.Duration(res[1]) * time.Millisecond,
		AttemptsRemaining: int(res[2]),
	}, nil
}

// RecordSuccess deletes the state hash.
func (r *Redis) RecordSuccess(ctx context.Context, username string) error {
	return r.del(ctx, username)
}

// Release deletes the state hash.
func (r *Redis) Release(ctx context.Context, username string) error {
	return r.del(ctx, username)
}

// Acquire takes a short lease on username, retrying with backoff until LeaseWait elapses.
func (r *Redis) Acquire(ctx context.Context, username string) (func(), error) {
	key := r.leaseKey(username)
	token := uuid.NewString()

	b := retry.NewExponential(10 * time.Millisecond)
	b = retry.WithCappedDuration(200*time.Millisecond, b)
	b = retry.WithMaxDuration(r.opt.LeaseWait, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, key, token, r.opt.LeaseTTL).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(ErrLeaseTimeout)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lockout: acquire %q: %w", username, err)
	}

	return func() {
		// the caller's context may already be done when the guard is released
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		_ = releaseLeaseScript.Run(ctx, r.client, []string{key}, token).Err()
	}, nil
}

func (r *Redis) del(ctx context.Context, username string) error {
	if err := r.client.Del(ctx, r.stateKey(username)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("lockout: clear state: %w", err)
	}

	return nil
}

func parseInt(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}

	return n
}
