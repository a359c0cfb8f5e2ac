package db

import (
	"context"
	"errors"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
)

const getAuthRecord = `SELECT username, record_version, password_hash, mfa_kind, mfa_secret, clearance, created_at
FROM identity_auth_records
WHERE username = $1`

func (s *DB) GetAuthRecord(ctx context.Context, username string) (_ *entity.AuthRecord, err error) {
	ctx, span := s.startSpan(ctx, "GetAuthRecord")
	defer func() { s.endSpan(span, err) }()

	var (
		rec       entity.AuthRecord
		version   int16
		kind      string
		secret    string
		clearance int16
	)
	err = s.conn.QueryRow(ctx, getAuthRecord, username).Scan(
		&rec.Username, &version, &rec.PasswordHash, &kind, &secret, &clearance, &rec.CreatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	rec.Clearance, err = blp.ParseLevel(int(clearance))
	if err != nil {
		return nil, errors.Join(entity.ErrMalformedRecord, err)
	}
	rec.Factor, err = entity.NewSecondFactor(entity.FactorKind(kind), secret)
	if err != nil {
		return nil, err
	}
	if err := entity.CheckRecord(int(version), &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}
