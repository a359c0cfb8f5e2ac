package usecase

import (
	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
)

// RoleAdmin is granted every administrative object and action.
const RoleAdmin = "admin"

// AuthzModel is RBAC with wildcard objects and actions. Subjects are usernames.
const AuthzModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// NewEnforcer builds the administrative enforcer. A nil adapter keeps
// policy in memory. Every name in admins is granted RoleAdmin.
func NewEnforcer(adapter persist.Adapter, admins []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(AuthzModel)
	if err != nil {
		return nil, err
	}

	var e *casbin.Enforcer
	if adapter != nil {
		e, err = casbin.NewEnforcer(m, adapter)
	} else {
		e, err = casbin.NewEnforcer(m)
	}
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicy(RoleAdmin, "*", "*"); err != nil {
		return nil, err
	}
	for _, name := range admins {
		if _, err := e.AddGroupingPolicy(name, RoleAdmin); err != nil {
			return nil, err
		}
	}

	return e, nil
}
