package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/migrations"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db, migrations.DialectSQLite))

	return NewSQLite(db, instrument.NewNoop()), db
}

func TestSQLite_AuthRecord(t *testing.T) {
	t.Parallel()

	s, db := newTestSQLite(t)
	ctx := context.Background()

	alice := entity.AuthRecord{
		Username:     "alice",
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		Factor:       entity.TOTPFactor{Secret: "JBSWY3DPEHPK3PXP"},
		Clearance:    blp.Secret,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 123, time.UTC),
	}

	// Act
	require.NoError(t, s.CreateAuthRecord(ctx, alice))
	got, err := s.GetAuthRecord(ctx, "alice")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, alice, *got)

	assert.ErrorIs(t, s.CreateAuthRecord(ctx, alice), goerror.ErrConflict)

	_, err = s.GetAuthRecord(ctx, "bob")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	_, err = db.ExecContext(ctx, `UPDATE identity_auth_records SET mfa_secret = '' WHERE username = 'alice'`)
	require.NoError(t, err)
	_, err = s.GetAuthRecord(ctx, "alice")
	assert.ErrorIs(t, err, entity.ErrMalformedRecord)
}

func TestSQLite_ClearanceOutOfRange(t *testing.T) {
	t.Parallel()

	s, db := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAuthRecord(ctx, entity.AuthRecord{
		Username:     "alice",
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		Factor:       entity.NoSecondFactor{},
		Clearance:    blp.Unclassified,
		CreatedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}))

	// the single pooled connection keeps the pragma for the updates below
	_, err := db.ExecContext(ctx, `PRAGMA ignore_check_constraints = ON`)
	require.NoError(t, err)

	for _, c := range []int{259, 256, -1} {
		_, err := db.ExecContext(ctx, `UPDATE identity_auth_records SET clearance = ? WHERE username = 'alice'`, c)
		require.NoError(t, err)

		_, err = s.GetAuthRecord(ctx, "alice")
		assert.ErrorIs(t, err, entity.ErrMalformedRecord, "clearance=%d", c)
		assert.ErrorIs(t, err, blp.ErrInvalidRange, "clearance=%d", c)
	}
}
