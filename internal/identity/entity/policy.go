package entity

import (
	"github.com/shandysiswandi/mlsgate/internal/pkg/passpolicy"
)

// PolicyRule names the provisioning rule a request broke.
type PolicyRule int8

const (
	RuleInvalidUsername PolicyRule = iota + 1
	RuleDuplicateUser
	RuleWeakPassword
	RuleInvalidClearance
)

func (r PolicyRule) String() string {
	switch r {
	case RuleInvalidUsername:
		return "invalid_username"
	case RuleDuplicateUser:
		return "duplicate_user"
	case RuleWeakPassword:
		return "weak_password"
	case RuleInvalidClearance:
		return "invalid_clearance"
	default:
		return "unknown"
	}
}

// PolicyError reports why provisioning refused an account. Password is set
// only for RuleWeakPassword.
type PolicyError struct {
	Rule     PolicyRule
	Password passpolicy.Rule
}

func (e *PolicyError) Error() string {
	if e.Rule == RuleWeakPassword {
		return "identity: password policy: " + e.Password.String()
	}

	return "identity: provisioning policy: " + e.Rule.String()
}
