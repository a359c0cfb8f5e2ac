package lockout

import (
	"context"
	"hash/maphash"
	"sync"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/pkg/keylock"
)

const shardCount = 64

type state struct {
	failures  int
	lockUntil time.Time
}

type shard struct {
	mu     sync.Mutex
	states map[string]*state
}

// Memory is a process-local Tracker backed by a sharded map.
//
// Usernames in different shards never contend on the same mutex.
type Memory struct {
	policy Policy
	seed   maphash.Seed
	shards [shardCount]shard
	guards *keylock.Map
}

// NewMemory returns an empty in-memory tracker.
func NewMemory(p Policy) *Memory {
	m := &Memory{
		policy: p.normalize(),
		seed:   maphash.MakeSeed(),
		guards: keylock.New(),
	}
	for i := range m.shards {
		m.shards[i].states = make(map[string]*state)
	}

	return m
}

func (m *Memory) shardFor(username string) *shard {
	return &m.shards[maphash.String(m.seed, username)%shardCount]
}

// CheckLocked reports the lock status of username at now.
func (m *Memory) CheckLocked(_ context.Context, username string, now time.Time) (Status, error) {
	s := m.shardFor(username)
	s.mu.Lock()
	defer s.mu.Unlock()

	return m.statusOf(s.states[username], now), nil
}

// RecordFailure counts a failure and locks username once the threshold is hit.
func (m *Memory) RecordFailure(_ context.Context, username string, now time.Time) (Status, error) {
	s := m.shardFor(username)
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[username]
	if !ok {
		st = &state{}
		s.states[username] = st
	}

	if now.Before(st.lockUntil) {
		return Status{Locked: true, Remaining: st.lockUntil.Sub(now)}, nil
	}

	st.failures++
	if st.failures >= m.policy.MaxFailures {
		st.failures = 0
		st.lockUntil = now.Add(m.policy.Duration)

		return Status{Locked: true, Remaining: m.policy.Duration}, nil
	}

	return Status{AttemptsRemaining: m.policy.MaxFailures - st.failures}, nil
}

// RecordSuccess drops all state for username.
func (m *Memory) RecordSuccess(_ context.Context, username string) error {
	m.drop(username)
	return nil
}

// Release drops all state for username.
func (m *Memory) Release(_ context.Context, username string) error {
	m.drop(username)
	return nil
}

// Acquire takes the per-username guard.
func (m *Memory) Acquire(ctx context.Context, username string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return m.guards.Lock(username), nil
}

func (m *Memory) drop(username string) {
	s := m.shardFor(username)
	s.mu.Lock()
	delete(s.states, username)
	s.mu.Unlock()
}

func (m *Memory) statusOf(st *state, now time.Time) Status {
	if st == nil {
		return Status{AttemptsRemaining: m.policy.MaxFailures}
	}

	if now.Before(st.lockUntil) {
		return Status{Locked: true, Remaining: st.lockUntil.Sub(now)}
	}

	return Status{AttemptsRemaining: m.policy.MaxFailures - st.failures}
}
