package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: NewServer(errors.New("db down")), want: http.StatusInternalServerError},
		{err: NewBusiness("locked", CodeLocked), want: http.StatusLocked},
		{err: NewBusiness("denied", CodeForbidden), want: http.StatusForbidden},
		{err: NewBusiness("gone", CodeNotFound), want: http.StatusNotFound},
		{err: NewInvalidInput(nil, "password", "too short"), want: http.StatusUnprocessableEntity},
		{err: NewInvalidFormat(), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var ge *Error
			require.ErrorAs(t, tt.err, &ge)
			assert.Equal(t, tt.want, ge.StatusCode())
		})
	}
}

func TestNewServerHidesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	err := NewServer(cause)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "Internal server error", ge.Msg())
	assert.ErrorIs(t, err, cause)
}

func TestNewInvalidInput_OddPairs(t *testing.T) {
	t.Parallel()

	err := NewInvalidInput(nil, "only-key")

	assert.Equal(t, CodeInvalidFormat, CodeOf(err))
}

func TestWithFields(t *testing.T) {
	t.Parallel()

	t.Run("MergesWithoutMutatingOriginal", func(t *testing.T) {
		// Arrange
		base := NewInvalidInput(nil, "password", "too short")

		// Act
		got := WithFields(base, "rule", "length")

		// Assert
		var ge, orig *Error
		require.ErrorAs(t, got, &ge)
		require.ErrorAs(t, base, &orig)
		assert.Equal(t, map[string]string{"password": "too short", "rule": "length"}, ge.Fields())
		assert.Equal(t, map[string]string{"password": "too short"}, orig.Fields())
		assert.Equal(t, CodeInvalidInput, ge.Code())
	})

	t.Run("WrapsPlainErrors", func(t *testing.T) {
		got := WithFields(errors.New("boom"), "k", "v")

		assert.Equal(t, CodeInternal, CodeOf(got))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, WithFields(nil, "k", "v"))
	})
}

func TestCodeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ERROR_CODE_LOCKED", CodeLocked.String())
	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(99).String())
	assert.Equal(t, "ERROR_TYPE_BUSINESS", TypeBusiness.String())
}

type causeErr struct{ rule string }

func (c *causeErr) Error() string { return "policy: " + c.rule }

func TestWrapBusiness(t *testing.T) {
	t.Parallel()

	err := WrapBusiness(&causeErr{rule: "length"}, "password does not meet policy", CodeInvalidInput)

	var ce *causeErr
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "length", ce.rule)

	var ge *Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "password does not meet policy", ge.Msg())
	assert.Equal(t, TypeBusiness, ge.Type())
	assert.Equal(t, http.StatusUnprocessableEntity, ge.StatusCode())
}
