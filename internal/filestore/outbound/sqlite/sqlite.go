// Package sqlite keeps the file catalog in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
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
	return s.ins.Tracer("filestore.outbound.sqlite").Start(ctx, name)
}

func (s *SQLite) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (entity.File, error) {
	var (
		f         entity.File
		level     int
		createdAt string
	)
	if err := row.Scan(&f.Name, &f.Owner, &level, &createdAt); err != nil {
		return f, err
	}

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return f, err
	}
	if f.Classification, err = blp.ParseLevel(level); err != nil {
		return f, err
	}
	f.CreatedAt = t

	return f, nil
}

func (s *SQLite) CreateFile(ctx context.Context, f entity.File) (err error) {
	ctx, span := s.startSpan(ctx, "CreateFile")
	defer func() { s.endSpan(span, err) }()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO filestore_files (name, owner, classification, created_at) VALUES (?, ?, ?, ?)`,
		f.Name, f.Owner, int(f.Classification), f.CreatedAt.UTC().Format(time.RFC3339Nano))

	err = s.mapError(err)
	return err
}

func (s *SQLite) GetFile(ctx context.Context, name string) (_ *entity.File, err error) {
	ctx, span := s.startSpan(ctx, "GetFile")
	defer func() { s.endSpan(span, err) }()

	f, err := scanFile(s.db.QueryRowContext(ctx,
		`SELECT name, owner, classification, created_at FROM filestore_files WHERE name = ?`, name))
	if err != nil {
		return nil, s.mapError(err)
	}

	return &f, nil
}

func (s *SQLite) ListFiles(ctx context.Context) (_ []entity.File, err error) {
	ctx, span := s.startSpan(ctx, "ListFiles")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT name, owner, classification, created_at FROM filestore_files ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []entity.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	return files, rows.Err()
}

func (s *SQLite) DeleteFile(ctx context.Context, name string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteFile")
	defer func() { s.endSpan(span, err) }()

	_, err = s.db.ExecContext(ctx, `DELETE FROM filestore_files WHERE name = ?`, name)
	return err
}
