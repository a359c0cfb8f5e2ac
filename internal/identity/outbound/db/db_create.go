package db

import (
	"context"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
)

const createAuthRecord = `INSERT INTO identity_auth_records
(username, record_version, password_hash, mfa_kind, mfa_secret, clearance, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *DB) CreateAuthRecord(ctx context.Context, rec entity.AuthRecord) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAuthRecord")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createAuthRecord,
		rec.Username,
		int16(entity.RecordVersion),
		rec.PasswordHash,
		string(rec.Factor.Kind()),
		entity.FactorSecret(rec.Factor),
		int16(rec.Clearance),
		rec.CreatedAt,
	)

	err = s.mapError(err)
	return err
}
