package passpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		wantOK   bool
		wantRule Rule
	}{
		{name: "Accepted", username: "alice", password: "Tr0ub4dor&3", wantOK: true, wantRule: RuleNone},
		{name: "TooShort", username: "alice", password: "Ab1!", wantRule: RuleLength},
		{name: "TooLong", username: "alice", password: "Abcdefghij1!Abcdefghij1!Abcdefgh", wantRule: RuleLength},
		{name: "MaxLengthAccepted", username: "alice", password: "Abcdefghij1!Abcdefghij1!Abcdefg", wantOK: true, wantRule: RuleNone},
		{name: "NonASCIICountsRunes", username: "alice", password: "Pässwörd1!", wantRule: RulePrintable},
		{name: "ControlCharacter", username: "alice", password: "Tr0ub4dor\t&3", wantRule: RulePrintable},
		{name: "NoPunctuation", username: "alice", password: "abc12345", wantRule: RuleCharClasses},
		{name: "NoDigit", username: "alice", password: "Troubador&!", wantRule: RuleCharClasses},
		{name: "NoLetter", username: "alice", password: "12345678!", wantRule: RuleCharClasses},
		{name: "NoUppercase", username: "alice", password: "abc1234!", wantRule: RuleMixedCase},
		{name: "NoLowercase", username: "alice", password: "ABC1234!", wantRule: RuleMixedCase},
		{name: "UsernameSuffix", username: "alice", password: "alice1A!", wantRule: RuleContainsUsername},
		{name: "UsernameCaseInsensitive", username: "Alice", password: "xxALICE9!", wantRule: RuleContainsUsername},
		{name: "Compromised", username: "bob", password: "Password123!", wantRule: RuleCompromised},
		{name: "CompromisedCaseInsensitive", username: "bob", password: "pASSWORD123!", wantRule: RuleCompromised},
		{name: "EmptyUsernameSkipsContainment", username: "", password: "Tr0ub4dor&3", wantOK: true, wantRule: RuleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			ok, rule := Validate(tt.username, tt.password)

			// Assert
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRule, rule, "got %s", rule)
		})
	}
}

func TestRuleMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "compromised", RuleCompromised.String())
	assert.Contains(t, RuleLength.Message(), "8 and 31")
	assert.Equal(t, "unknown", Rule(42).String())
}
