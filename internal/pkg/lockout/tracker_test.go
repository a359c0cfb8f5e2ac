package lockout

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = Policy{MaxFailures: 5, Duration: 10 * time.Minute}

// runTrackerSuite exercises the Tracker contract against any implementation.
// newTracker must return an isolated tracker for each call.
func runTrackerSuite(t *testing.T, newTracker func(t *testing.T) Tracker) {
	t.Helper()
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("FreshUsernameIsUnlocked", func(t *testing.T) {
		tr := newTracker(t)

		st, err := tr.CheckLocked(ctx, "alice", start)

		require.NoError(t, err)
		assert.False(t, st.Locked)
		assert.Equal(t, 5, st.AttemptsRemaining)
	})

	t.Run("FifthFailureLocks", func(t *testing.T) {
		// Arrange
		tr := newTracker(t)

		// Act
		var st Status
		var err error
		for i := range 4 {
			st, err = tr.RecordFailure(ctx, "alice", start)
			require.NoError(t, err)
			assert.False(t, st.Locked)
			assert.Equal(t, 4-i, st.AttemptsRemaining)
		}
		st, err = tr.RecordFailure(ctx, "alice", start)

		// Assert
		require.NoError(t, err)
		assert.True(t, st.Locked)
		assert.Equal(t, 10*time.Minute, st.Remaining)

		st, err = tr.CheckLocked(ctx, "alice", start.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, st.Locked)
		assert.Equal(t, 9*time.Minute, st.Remaining)
	})

	t.Run("FailureWhileLockedDoesNotExtend", func(t *testing.T) {
		tr := newTracker(t)
		for range 5 {
			_, err := tr.RecordFailure(ctx, "alice", start)
			require.NoError(t, err)
		}

		st, err := tr.RecordFailure(ctx, "alice", start.Add(2*time.Minute))
		require.NoError(t, err)
		assert.True(t, st.Locked)
		assert.Equal(t, 8*time.Minute, st.Remaining)
	})

	t.Run("LockExpiresLazily", func(t *testing.T) {
		// Arrange
		tr := newTracker(t)
		for range 5 {
			_, err := tr.RecordFailure(ctx, "alice", start)
			require.NoError(t, err)
		}
		later := start.Add(10 * time.Minute)

		// Act
		st, err := tr.CheckLocked(ctx, "alice", later)

		// Assert
		require.NoError(t, err)
		assert.False(t, st.Locked)
		assert.Equal(t, 5, st.AttemptsRemaining)

		st, err = tr.RecordFailure(ctx, "alice", later)
		require.NoError(t, err)
		assert.False(t, st.Locked)
		assert.Equal(t, 4, st.AttemptsRemaining)
	})

	t.Run("SuccessResetsCount", func(t *testing.T) {
		tr := newTracker(t)
		for range 4 {
			_, err := tr.RecordFailure(ctx, "alice", start)
			require.NoError(t, err)
		}

		require.NoError(t, tr.RecordSuccess(ctx, "alice"))

		st, err := tr.RecordFailure(ctx, "alice", start)
		require.NoError(t, err)
		assert.False(t, st.Locked)
		assert.Equal(t, 4, st.AttemptsRemaining)
	})

	t.Run("ReleaseClearsLiveLock", func(t *testing.T) {
		tr := newTracker(t)
		for range 5 {
			_, err := tr.RecordFailure(ctx, "alice", start)
			require.NoError(t, err)
		}

		require.NoError(t, tr.Release(ctx, "alice"))

		st, err := tr.CheckLocked(ctx, "alice", start)
		require.NoError(t, err)
		assert.False(t, st.Locked)
	})

	t.Run("UsernamesAreIndependent", func(t *testing.T) {
		tr := newTracker(t)
		for range 5 {
			_, err := tr.RecordFailure(ctx, "alice", start)
			require.NoError(t, err)
		}

		st, err := tr.CheckLocked(ctx, "bob", start)
		require.NoError(t, err)
		assert.False(t, st.Locked)
		assert.Equal(t, 5, st.AttemptsRemaining)
	})

	t.Run("ConcurrentFailuresNeverExceedThreshold", func(t *testing.T) {
		// Arrange
		tr := newTracker(t)
		var counted, locked atomic.Int32
		var wg sync.WaitGroup

		// Act
		for range 20 {
			wg.Go(func() {
				st, err := tr.RecordFailure(ctx, "alice", start)
				switch {
				case err != nil:
				case st.Locked:
					locked.Add(1)
				default:
					counted.Add(1)
				}
			})
		}
		wg.Wait()

		// Assert
		assert.Equal(t, int32(4), counted.Load())
		assert.Equal(t, int32(16), locked.Load())
	})

	t.Run("AcquireSerializesSameUsername", func(t *testing.T) {
		tr := newTracker(t)
		var inside atomic.Int32
		var maxInside atomic.Int32
		var wg sync.WaitGroup

		for range 8 {
			wg.Go(func() {
				release, err := tr.Acquire(ctx, "alice")
				if !assert.NoError(t, err) {
					return
				}
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(2 * time.Millisecond)
				inside.Add(-1)
				release()
			})
		}
		wg.Wait()

		assert.Equal(t, int32(1), maxInside.Load())
	})
}
