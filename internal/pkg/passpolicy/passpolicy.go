// Package passpolicy checks candidate passwords against the account password rules.
//
// Rules run in a fixed order and the first violation wins, so callers can
// report exactly which rule failed.
package passpolicy

import (
	"strings"
	"unicode/utf8"
)

const (
	MinLength = 8
	MaxLength = 31

	punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Rule identifies one password rule. RuleNone means every rule passed.
type Rule uint8

const (
	RuleNone Rule = iota
	RuleLength
	RulePrintable
	RuleCharClasses
	RuleMixedCase
	RuleContainsUsername
	RuleCompromised
)

func (r Rule) String() string {
	switch r {
	case RuleNone:
		return "none"
	case RuleLength:
		return "length"
	case RulePrintable:
		return "printable"
	case RuleCharClasses:
		return "char_classes"
	case RuleMixedCase:
		return "mixed_case"
	case RuleContainsUsername:
		return "contains_username"
	case RuleCompromised:
		return "compromised"
	default:
		return "unknown"
	}
}

// Message is the user-facing explanation of a violated rule.
func (r Rule) Message() string {
	switch r {
	case RuleLength:
		return "password must be between 8 and 31 characters"
	case RulePrintable:
		return "password must only contain printable characters"
	case RuleCharClasses:
		return "password must combine letters with numbers and punctuation"
	case RuleMixedCase:
		return "password must contain at least one uppercase and one lowercase letter"
	case RuleContainsUsername:
		return "password cannot contain the username"
	case RuleCompromised:
		return "password is on a list of compromised passwords"
	default:
		return "password accepted"
	}
}

// compromised is compared case-insensitively.
var compromised = []string{
	"Password123!",
	"12345678",
	"admin",
	"password",
	"123456789",
	"1234567890",
	"qwerty123",
	"Qwerty123!",
	"P@ssw0rd",
	"P@ssword1",
	"Passw0rd!",
	"Welcome1!",
	"Welcome123!",
	"Letmein1!",
	"Admin123!",
	"Iloveyou1!",
	"Abc12345!",
	"Football1!",
	"Monkey123!",
	"Dragon123!",
}

// Validate checks password for username and returns the first violated rule.
func Validate(username, password string) (ok bool, violated Rule) {
	n := utf8.RuneCountInString(password)
	if n < MinLength || n > MaxLength {
		return false, RuleLength
	}

	var letter, digit, punct, upper, lower bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		if c < 0x20 || c > 0x7e {
			return false, RulePrintable
		}

		switch {
		case c >= 'a' && c <= 'z':
			letter, lower = true, true
		case c >= 'A' && c <= 'Z':
			letter, upper = true, true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(punctuation, c) >= 0:
			punct = true
		}
	}

	if !letter || !digit || !punct {
		return false, RuleCharClasses
	}

	if !upper || !lower {
		return false, RuleMixedCase
	}

	if username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return false, RuleContainsUsername
	}

	for _, p := range compromised {
		if strings.EqualFold(p, password) {
			return false, RuleCompromised
		}
	}

	return true, RuleNone
}
