// Package sqlite stores credential records in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLite struct {
	db  *sql.DB
	ins instrument.Instrumentation
}

func NewSQLite(db *sql.DB, ins instrument.Instrumentation) *SQLite {
	return &SQLite{db: db, ins: ins}
}

func (s *SQLite) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return goerror.ErrConflict
		}
	}

	return err
}

func (s *SQLite) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.sqlite").Start(ctx, name)
}

func (s *SQLite) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *SQLite) GetAuthRecord(ctx context.Context, username string) (_ *entity.AuthRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetAuthRecord")
	defer func() { s.endSpan(span, err) }()

	var (
		rec       entity.AuthRecord
		version   int
		kind      string
		secret    string
		clearance int
		createdAt string
	)
	err = s.db.QueryRowContext(ctx, `SELECT username, record_version, password_hash, mfa_kind, mfa_secret, clearance, created_at
		FROM identity_auth_records WHERE username = ?`, username).
		Scan(&rec.Username, &version, &rec.PasswordHash, &kind, &secret, &clearance, &createdAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	if rec.Clearance, err = blp.ParseLevel(clearance); err != nil {
		return nil, errors.Join(entity.ErrMalformedRecord, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, errors.Join(entity.ErrMalformedRecord, err)
	}
	if rec.Factor, err = entity.NewSecondFactor(entity.FactorKind(kind), secret); err != nil {
		return nil, err
	}
	if err := entity.CheckRecord(version, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *SQLite) CreateAuthRecord(ctx context.Context, rec entity.AuthRecord) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAuthRecord")
	defer func() { s.endSpan(span, err) }()

	_, err = s.db.ExecContext(ctx, `INSERT INTO identity_auth_records
		(username, record_version, password_hash, mfa_kind, mfa_secret, clearance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Username,
		entity.RecordVersion,
		rec.PasswordHash,
		string(rec.Factor.Kind()),
		entity.FactorSecret(rec.Factor),
		int(rec.Clearance),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)

	err = s.mapError(err)
	return err
}
