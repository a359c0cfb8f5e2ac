// Package pgxcasbin persists Casbin policy lines in PostgreSQL through pgx.
//
// Rules live in the authz_rules table (ptype, v0..v5). The table is created
// by the schema migrations; the adapter only reads and writes rows.
package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

const (
	fieldCount       = 6
	defaultTableName = "authz_rules"
)

var (
	// ErrEmptyPtype indicates a missing policy type.
	ErrEmptyPtype = errors.New("pgxcasbin: ptype is empty")
	// ErrRuleTooLong indicates a rule with more than six fields.
	ErrRuleTooLong = errors.New("pgxcasbin: rule exceeds six fields")
	// ErrInvalidFilterType indicates the filter value is not supported.
	ErrInvalidFilterType = errors.New("pgxcasbin: invalid filter type")
)

// DB is the subset of pgxpool.Pool the adapter uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Adapter stores and retrieves Casbin policies using pgx.
type Adapter struct {
	db     DB
	table  string
	filter *atomic.Bool
}

var (
	_ persist.Adapter         = (*Adapter)(nil)
	_ persist.FilteredAdapter = (*Adapter)(nil)
)

// NewAdapter returns an adapter over table; an empty table uses authz_rules.
func NewAdapter(db DB, table string) *Adapter {
	if table == "" {
		table = defaultTableName
	}

	return &Adapter{
		db:     db,
		table:  pgx.Identifier{lo.SnakeCase(table)}.Sanitize(),
		filter: atomic.NewBool(false),
	}
}

// LoadPolicy loads every stored line into the model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	a.filter.Store(false)

	lines, err := a.selectWhere(context.Background(), "", 0)
	if err != nil {
		return err
	}

	return loadLines(m, lines)
}

// LoadFilteredPolicy loads the lines matching filter. The filter maps a ptype
// to alternative field-value lists; empty values match anything.
func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	if lo.IsNil(filter) {
		return a.LoadPolicy(m)
	}

	ft, ok := filter.(map[string][][]string)
	if !ok {
		return fmt.Errorf("%w: got %T, want map[ptype][][]fieldValues", ErrInvalidFilterType, filter)
	}
	a.filter.Store(true)

	ctx := context.Background()
	var lines [][]string
	for ptype, alternatives := range ft {
		for _, values := range alternatives {
			found, err := a.selectWhere(ctx, ptype, 0, values...)
			if err != nil {
				return err
			}
			lines = append(lines, found...)
		}
	}
	lines = lo.UniqBy(lines, func(line []string) string {
		return strings.Join(line, ",")
	})

	return loadLines(m, lines)
}

// IsFiltered reports whether the last load used a filter. Casbin refuses to
// save a filtered model over the full table.
func (a *Adapter) IsFiltered() bool {
	return a.filter.Load()
}

// SavePolicy replaces every stored line with the model's current policy.
func (a *Adapter) SavePolicy(m model.Model) (err error) {
	ctx := context.Background()

	tx, err := a.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgxcasbin: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM "+a.table); err != nil {
		return fmt.Errorf("pgxcasbin: clear: %w", err)
	}

	batch := &pgx.Batch{}
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				args, aerr := ruleArgs(ptype, rule)
				if aerr != nil {
					return aerr
				}
				batch.Queue(a.insertSQL(), args...)
			}
		}
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("pgxcasbin: insert: %w", err)
	}

	return tx.Commit(ctx)
}

// AddPolicy stores one rule. Adding an existing rule is a no-op.
func (a *Adapter) AddPolicy(_ string, ptype string, rule []string) error {
	args, err := ruleArgs(ptype, rule)
	if err != nil {
		return err
	}

	if _, err := a.db.Exec(context.Background(), a.insertSQL(), args...); err != nil {
		return fmt.Errorf("pgxcasbin: insert: %w", err)
	}

	return nil
}

// RemovePolicy deletes one rule.
func (a *Adapter) RemovePolicy(_ string, ptype string, rule []string) error {
	args, err := ruleArgs(ptype, rule)
	if err != nil {
		return err
	}

	conds := lo.Times(fieldCount, func(i int) string {
		return "v" + strconv.Itoa(i) + " = $" + strconv.Itoa(i+2)
	})
	_, err = a.db.Exec(context.Background(), fmt.Sprintf(
		"DELETE FROM %s WHERE ptype = $1 AND %s", a.table, strings.Join(conds, " AND ")), args...)
	if err != nil {
		return fmt.Errorf("pgxcasbin: delete: %w", err)
	}

	return nil
}

// RemoveFilteredPolicy deletes rules whose fields starting at fieldIndex
// match fieldValues. Empty values match anything.
func (a *Adapter) RemoveFilteredPolicy(_ string, ptype string, fieldIndex int, fieldValues ...string) error {
	if ptype == "" {
		return ErrEmptyPtype
	}

	where, args, err := filterClause(ptype, fieldIndex, fieldValues)
	if err != nil {
		return err
	}

	if _, err := a.db.Exec(context.Background(), "DELETE FROM "+a.table+" WHERE "+where, args...); err != nil {
		return fmt.Errorf("pgxcasbin: delete filtered: %w", err)
	}

	return nil
}

// selectWhere returns stored lines, trailing empty fields dropped. An empty
// ptype selects every line.
func (a *Adapter) selectWhere(ctx context.Context, ptype string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	query := fmt.Sprintf("SELECT ptype, %s FROM %s", strings.Join(columns(), ", "), a.table)

	var args []any
	if ptype != "" {
		where, whereArgs, err := filterClause(ptype, fieldIndex, fieldValues)
		if err != nil {
			return nil, err
		}
		query += " WHERE " + where
		args = whereArgs
	}

	rows, err := a.db.Query(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("pgxcasbin: select: %w", err)
	}
	defer rows.Close()

	var lines [][]string
	for rows.Next() {
		line := make([]string, fieldCount+1)
		if err := rows.Scan(lo.ToAnySlice(lo.Map(line, func(_ string, i int) *string { return &line[i] }))...); err != nil {
			return nil, fmt.Errorf("pgxcasbin: scan: %w", err)
		}
		lines = append(lines, trimTrailingEmpty(line))
	}

	return lines, rows.Err()
}

func (a *Adapter) insertSQL() string {
	placeholders := lo.Times(fieldCount, func(i int) string { return "$" + strconv.Itoa(i+2) })

	return fmt.Sprintf("INSERT INTO %s (ptype, %s) VALUES ($1, %s) ON CONFLICT DO NOTHING",
		a.table, strings.Join(columns(), ", "), strings.Join(placeholders, ", "))
}

func columns() []string {
	return lo.Times(fieldCount, func(i int) string { return "v" + strconv.Itoa(i) })
}

// filterClause matches ptype and the non-empty fieldValues starting at
// column fieldIndex.
func filterClause(ptype string, fieldIndex int, fieldValues []string) (string, []any, error) {
	if fieldIndex < 0 || fieldIndex+len(fieldValues) > fieldCount {
		return "", nil, ErrRuleTooLong
	}

	conds := []string{"ptype = $1"}
	args := []any{ptype}
	for i, v := range fieldValues {
		if lo.IsEmpty(v) {
			continue
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("v%d = $%d", fieldIndex+i, len(args)))
	}

	return strings.Join(conds, " AND "), args, nil
}

func ruleArgs(ptype string, rule []string) ([]any, error) {
	if ptype == "" {
		return nil, ErrEmptyPtype
	}
	if len(rule) > fieldCount {
		return nil, ErrRuleTooLong
	}

	padded := append(append([]string{ptype}, rule...), make([]string, fieldCount-len(rule))...)

	return lo.ToAnySlice(padded), nil
}

// trimTrailingEmpty drops empty trailing fields but always keeps the ptype.
func trimTrailingEmpty(line []string) []string {
	if len(line) == 0 {
		return line
	}

	return append(line[:1:1], lo.DropRightWhile(line[1:], lo.IsEmpty[string])...)
}

func loadLines(m model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}

	return nil
}
