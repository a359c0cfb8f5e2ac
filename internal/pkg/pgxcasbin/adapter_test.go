package pgxcasbin

import (
	"context"
	"testing"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/shandysiswandi/mlsgate/internal/migrations"
)

const testModel = `
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

func TestRuleArgs(t *testing.T) {
	t.Parallel()

	args, err := ruleArgs("g", []string{"alice", "admin"})
	require.NoError(t, err)
	assert.Equal(t, []any{"g", "alice", "admin", "", "", "", ""}, args)

	_, err = ruleArgs("", []string{"a"})
	assert.ErrorIs(t, err, ErrEmptyPtype)

	_, err = ruleArgs("p", []string{"1", "2", "3", "4", "5", "6", "7"})
	assert.ErrorIs(t, err, ErrRuleTooLong)
}

func TestTrimTrailingEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"p", "admin", "*", "*"}, trimTrailingEmpty([]string{"p", "admin", "*", "*", "", "", ""}))
	assert.Equal(t, []string{"g"}, trimTrailingEmpty([]string{"g", "", ""}))
	assert.Equal(t, []string{"p", "", "x"}, trimTrailingEmpty([]string{"p", "", "x", "", "", "", ""}))
	assert.Equal(t, []string{"", "a"}, trimTrailingEmpty([]string{"", "a"}))
}

func TestFilterClause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		index    int
		values   []string
		wantSQL  string
		wantArgs []any
		wantErr  error
	}{
		{name: "PtypeOnly", wantSQL: "ptype = $1", wantArgs: []any{"g"}},
		{
			name:     "SkipsEmptyValues",
			values:   []string{"", "admin"},
			wantSQL:  "ptype = $1 AND v1 = $2",
			wantArgs: []any{"g", "admin"},
		},
		{
			name:     "OffsetIndex",
			index:    2,
			values:   []string{"x"},
			wantSQL:  "ptype = $1 AND v2 = $2",
			wantArgs: []any{"g", "x"},
		},
		{name: "TooManyValues", index: 4, values: []string{"a", "b", "c"}, wantErr: ErrRuleTooLong},
		{name: "NegativeIndex", index: -1, wantErr: ErrRuleTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sql, args, err := filterClause("g", tt.index, tt.values)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestNewAdapter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `"authz_rules"`, NewAdapter(nil, "").table)
	assert.Equal(t, `"authz_rules"`, NewAdapter(nil, "AuthzRules").table)
	assert.False(t, NewAdapter(nil, "").IsFiltered())
}

func TestLoadFilteredPolicy_InvalidFilter(t *testing.T) {
	t.Parallel()

	// Arrange
	m, err := model.NewModelFromString(testModel)
	require.NoError(t, err)
	a := NewAdapter(nil, "")

	// Act
	err = a.LoadFilteredPolicy(m, "g=alice")

	// Assert
	assert.ErrorIs(t, err, ErrInvalidFilterType)
	assert.False(t, a.IsFiltered())
}

func TestAdapter_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("mlsgate"),
		tcpostgres.WithUsername("mlsgate"),
		tcpostgres.WithPassword("mlsgate"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.Up(ctx, stdlib.OpenDBFromPool(pool), migrations.DialectPostgres))

	m, err := model.NewModelFromString(testModel)
	require.NoError(t, err)

	a := NewAdapter(pool, "")
	e, err := casbin.NewEnforcer(m, a)
	require.NoError(t, err)

	// Act
	_, err = e.AddGroupingPolicy("alice", "admin")
	require.NoError(t, err)
	_, err = e.AddPolicy("admin", "*", "*")
	require.NoError(t, err)

	// Assert: a fresh enforcer sees the persisted rules.
	m2, err := model.NewModelFromString(testModel)
	require.NoError(t, err)
	e2, err := casbin.NewEnforcer(m2, NewAdapter(pool, ""))
	require.NoError(t, err)

	ok, err := e2.Enforce("alice", "lockout", "release")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e2.Enforce("bob", "lockout", "release")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e2.RemoveFilteredGroupingPolicy(0, "alice")
	require.NoError(t, err)
	require.NoError(t, e.LoadPolicy())

	ok, err = e.Enforce("alice", "lockout", "release")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.SavePolicy())
	require.NoError(t, e2.LoadPolicy())
	policy, err := e2.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policy, 1)

	// Filtered loads see only the matching lines and block saving.
	_, err = e.AddGroupingPolicy("alice", "admin")
	require.NoError(t, err)
	_, err = e.AddGroupingPolicy("bob", "auditor")
	require.NoError(t, err)

	require.NoError(t, e2.LoadFilteredPolicy(map[string][][]string{
		"g": {{"alice"}, {"", "admin"}},
	}))
	assert.True(t, e2.IsFiltered())
	grouping, err := e2.GetGroupingPolicy()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"alice", "admin"}}, grouping)
	policy, err = e2.GetPolicy()
	require.NoError(t, err)
	assert.Empty(t, policy)
	assert.Error(t, e2.SavePolicy())

	require.NoError(t, e2.LoadPolicy())
	assert.False(t, e2.IsFiltered())
	grouping, err = e2.GetGroupingPolicy()
	require.NoError(t, err)
	assert.Len(t, grouping, 2)
}
