package mfa

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func TestNewAESGCM(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "Valid", key: testKey},
		{name: "ShortKey", key: base64.StdEncoding.EncodeToString([]byte("short")), wantErr: ErrInvalidKeyLength},
		{name: "NotBase64", key: "%%%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewAESGCM(tt.key)

			switch {
			case tt.name == "Valid":
				require.NoError(t, err)
				assert.NotNil(t, enc)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestAESGCM_SealOpen(t *testing.T) {
	enc, err := NewAESGCM(testKey)
	require.NoError(t, err)
	alice := Scope{Username: "alice", Purpose: PurposeOTPSeed}

	t.Run("RoundTrip", func(t *testing.T) {
		sealed, err := enc.Seal("JBSWY3DPEHPK3PXP", alice)
		require.NoError(t, err)
		assert.NotContains(t, sealed, "JBSWY3DPEHPK3PXP")

		plain, err := enc.Open(sealed, alice)
		require.NoError(t, err)
		assert.Equal(t, "JBSWY3DPEHPK3PXP", plain)
	})

	t.Run("FreshNonce", func(t *testing.T) {
		a, err := enc.Seal("JBSWY3DPEHPK3PXP", alice)
		require.NoError(t, err)
		b, err := enc.Seal("JBSWY3DPEHPK3PXP", alice)
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})

	t.Run("OtherUsername", func(t *testing.T) {
		sealed, err := enc.Seal("JBSWY3DPEHPK3PXP", alice)
		require.NoError(t, err)

		_, err = enc.Open(sealed, Scope{Username: "mallory", Purpose: PurposeOTPSeed})
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("Tampered", func(t *testing.T) {
		sealed, err := enc.Seal("JBSWY3DPEHPK3PXP", alice)
		require.NoError(t, err)

		raw, err := base64.RawStdEncoding.DecodeString(sealed)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff

		_, err = enc.Open(base64.RawStdEncoding.EncodeToString(raw), alice)
		assert.ErrorIs(t, err, ErrOpenFailed)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := enc.Open("not base64!", alice)
		assert.ErrorIs(t, err, ErrMalformedSealed)

		_, err = enc.Open(base64.RawStdEncoding.EncodeToString([]byte{0, 1, 2}), alice)
		assert.ErrorIs(t, err, ErrMalformedSealed)
	})

	t.Run("UnknownVersion", func(t *testing.T) {
		raw := append([]byte{0, 9}, []byte(strings.Repeat("x", 40))...)

		_, err := enc.Open(base64.RawStdEncoding.EncodeToString(raw), alice)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("EmptyPlaintext", func(t *testing.T) {
		_, err := enc.Seal("", alice)
		assert.ErrorIs(t, err, ErrPlaintextEmpty)
	})
}
