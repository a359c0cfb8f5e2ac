package blp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanReadCanWrite(t *testing.T) {
	t.Parallel()

	assert.True(t, CanRead(3, 1))
	assert.False(t, CanRead(1, 3))
	assert.True(t, CanWrite(1, 3))
	assert.False(t, CanWrite(3, 1))
	assert.False(t, CanWrite(2, 1))

	for c := Unclassified; c <= TopSecret; c++ {
		assert.True(t, CanRead(c, c), "read at %s", c)
		assert.True(t, CanWrite(c, c), "write at %s", c)
	}
}

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		clearance      Level
		classification Level
		mode           Mode
		want           bool
		wantErr        error
	}{
		{name: "ReadDown", clearance: Secret, classification: Confidential, mode: Read, want: true},
		{name: "ReadUp", clearance: Confidential, classification: Secret, mode: Read, want: false},
		{name: "WriteUp", clearance: Confidential, classification: TopSecret, mode: Write, want: true},
		{name: "WriteDown", clearance: TopSecret, classification: Unclassified, mode: Write, want: false},
		{name: "ClearanceTooHigh", clearance: 4, classification: 0, mode: Read, wantErr: ErrInvalidRange},
		{name: "ClassificationNegative", clearance: 0, classification: -1, mode: Write, wantErr: ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := Decide(tt.clearance, tt.classification, tt.mode)

			// Assert
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("UnknownMode", func(t *testing.T) {
		got, err := Decide(Secret, Secret, Mode(9))

		require.Error(t, err)
		assert.False(t, got)
	})
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	m, ok := ParseMode("append")
	assert.True(t, ok)
	assert.Equal(t, Write, m)

	_, ok = ParseMode("execute")
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for n := 0; n <= 3; n++ {
		got, err := ParseLevel(n)
		require.NoError(t, err)
		assert.Equal(t, Level(n), got)
	}

	for _, n := range []int{-1, 4, 127, 256, 259, -253} {
		_, err := ParseLevel(n)
		assert.ErrorIs(t, err, ErrInvalidRange, "n=%d", n)
	}
}

func TestLevelString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TOP SECRET", TopSecret.String())
	assert.Equal(t, "Level(7)", Level(7).String())
}
