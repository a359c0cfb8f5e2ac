package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("filestore.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) CreateFile(ctx context.Context, f entity.File) (err error) {
	ctx, span := s.startSpan(ctx, "CreateFile")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO filestore_files (name, owner, classification, created_at) VALUES ($1, $2, $3, $4)`,
		f.Name, f.Owner, int16(f.Classification), f.CreatedAt)

	err = s.mapError(err)
	return err
}

func (s *DB) GetFile(ctx context.Context, name string) (_ *entity.File, err error) {
	ctx, span := s.startSpan(ctx, "GetFile")
	defer func() { s.endSpan(span, err) }()

	var (
		f     entity.File
		level int16
	)
	err = s.conn.QueryRow(ctx,
		`SELECT name, owner, classification, created_at FROM filestore_files WHERE name = $1`, name).
		Scan(&f.Name, &f.Owner, &level, &f.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}
	if f.Classification, err = blp.ParseLevel(int(level)); err != nil {
		return nil, err
	}

	return &f, nil
}

func (s *DB) ListFiles(ctx context.Context) (_ []entity.File, err error) {
	ctx, span := s.startSpan(ctx, "ListFiles")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `SELECT name, owner, classification, created_at FROM filestore_files ORDER BY name`)
	if err != nil {
		return nil, s.mapError(err)
	}

	files, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.File, error) {
		var (
			f     entity.File
			level int16
		)
		if err := row.Scan(&f.Name, &f.Owner, &level, &f.CreatedAt); err != nil {
			return f, err
		}
		lvl, err := blp.ParseLevel(int(level))
		f.Classification = lvl
		return f, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return files, nil
}

func (s *DB) DeleteFile(ctx context.Context, name string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteFile")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM filestore_files WHERE name = $1`, name)

	err = s.mapError(err)
	return err
}
