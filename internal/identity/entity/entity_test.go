package entity

import (
	"testing"

	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/passpolicy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecondFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    FactorKind
		secret  string
		want    SecondFactor
		wantErr bool
	}{
		{name: "None", kind: FactorNone, want: NoSecondFactor{}},
		{name: "TOTP", kind: FactorTOTP, secret: "JBSWY3DPEHPK3PXP", want: TOTPFactor{Secret: "JBSWY3DPEHPK3PXP"}},
		{name: "NoneWithSecret", kind: FactorNone, secret: "X", wantErr: true},
		{name: "TOTPWithoutSecret", kind: FactorTOTP, wantErr: true},
		{name: "UnknownKind", kind: "sms", secret: "X", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewSecondFactor(tt.kind, tt.secret)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedRecord)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, got.Kind())
			assert.Equal(t, tt.secret, FactorSecret(got))
		})
	}
}

func TestCheckRecord(t *testing.T) {
	t.Parallel()

	ok := AuthRecord{Username: "alice", PasswordHash: "$argon2id$x", Factor: NoSecondFactor{}, Clearance: blp.Secret}
	require.NoError(t, CheckRecord(RecordVersion, &ok))

	bad := []struct {
		name    string
		version int
		mutate  func(r *AuthRecord)
	}{
		{name: "Version", version: 2, mutate: func(*AuthRecord) {}},
		{name: "NoUsername", version: 1, mutate: func(r *AuthRecord) { r.Username = "" }},
		{name: "NoHash", version: 1, mutate: func(r *AuthRecord) { r.PasswordHash = "" }},
		{name: "Clearance", version: 1, mutate: func(r *AuthRecord) { r.Clearance = 9 }},
		{name: "NoFactor", version: 1, mutate: func(r *AuthRecord) { r.Factor = nil }},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := ok
			tt.mutate(&r)
			assert.ErrorIs(t, CheckRecord(tt.version, &r), ErrMalformedRecord)
		})
	}
}

func TestOutcomeStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "authenticated", AuthAuthenticated.String())
	assert.Equal(t, "locked", Locked(0).Status.String())
	assert.Equal(t, "bad_mfa_code", ReasonBadMFACode.String())
	assert.Equal(t, "unknown_user", Rejected(ReasonUnknownUser).Reason.String())
}

func TestPolicyError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "identity: provisioning policy: duplicate_user", (&PolicyError{Rule: RuleDuplicateUser}).Error())
	assert.Contains(t, (&PolicyError{Rule: RuleWeakPassword, Password: passpolicy.RuleCompromised}).Error(), "password policy")
}
