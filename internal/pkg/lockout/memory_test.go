package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	runTrackerSuite(t, func(*testing.T) Tracker { return NewMemory(testPolicy) })
}

func TestMemory_DefaultPolicy(t *testing.T) {
	t.Parallel()

	m := NewMemory(Policy{})

	st, err := m.CheckLocked(context.Background(), "alice", time.Now())

	require.NoError(t, err)
	assert.Equal(t, DefaultMaxFailures, st.AttemptsRemaining)
}

func TestMemory_AcquireHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	m := NewMemory(testPolicy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release, err := m.Acquire(ctx, "alice")

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, release)
}
