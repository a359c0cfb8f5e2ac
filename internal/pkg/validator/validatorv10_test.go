package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Username  string `validate:"required,username"`
	FileName  string `validate:"required,filename"`
	Clearance int    `validate:"min=0,max=3"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	t.Run("Valid", func(t *testing.T) {
		err := v.Validate(sampleRequest{Username: "alice.b-1", FileName: "report_2026.txt", Clearance: 2})

		assert.NoError(t, err)
	})

	t.Run("InvalidFields", func(t *testing.T) {
		// Act
		err := v.Validate(sampleRequest{Username: "alice smith", FileName: "../etc/passwd", Clearance: 4})

		// Assert
		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Values()["username"], "letters, digits")
		assert.Contains(t, verr.Values()["file_name"], "plain file name")
		assert.Contains(t, verr.Values(), "clearance")
	})

	t.Run("Required", func(t *testing.T) {
		err := v.Validate(sampleRequest{})

		var verr V10ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Username is a required field", verr.Values()["username"])
	})
}

func TestValidFilename(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"notes.txt":     true,
		"Q3 plan":       true,
		".hidden":       false,
		"a/b":           false,
		`a\b`:           false,
		"a..b":          false,
		"":              false,
		"files/secret":  false,
		"report-v2.pdf": true,
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ValidFilename(in))
		})
	}
}

func TestValidUsername(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidUsername("alice"))
	assert.True(t, ValidUsername("a.b_c-d"))
	assert.False(t, ValidUsername(""))
	assert.False(t, ValidUsername("alice:bob"))
}
