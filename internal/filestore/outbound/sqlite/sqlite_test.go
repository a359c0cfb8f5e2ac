package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/migrations"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_Catalog(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, migrations.Up(ctx, db, migrations.DialectSQLite))
	_, err = db.ExecContext(ctx, `INSERT INTO identity_auth_records
		(username, password_hash, mfa_kind, clearance, created_at) VALUES ('alice', 'h', 'none', 2, '2025-03-01T12:00:00Z')`)
	require.NoError(t, err)

	s := NewSQLite(db, instrument.NewNoop())
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// Act
	require.NoError(t, s.CreateFile(ctx, entity.File{Name: "b", Owner: "alice", Classification: blp.Secret, CreatedAt: at}))
	require.NoError(t, s.CreateFile(ctx, entity.File{Name: "a", Owner: "alice", Classification: blp.Unclassified, CreatedAt: at}))

	// Assert
	assert.ErrorIs(t, s.CreateFile(ctx, entity.File{Name: "a", Owner: "alice", CreatedAt: at}), goerror.ErrConflict)

	got, err := s.GetFile(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, entity.File{Name: "b", Owner: "alice", Classification: blp.Secret, CreatedAt: at}, *got)

	files, err := s.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a", files[0].Name)

	require.NoError(t, s.DeleteFile(ctx, "a"))
	_, err = s.GetFile(ctx, "a")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestSQLite_ClassificationOutOfRange(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, migrations.Up(ctx, db, migrations.DialectSQLite))
	_, err = db.ExecContext(ctx, `INSERT INTO identity_auth_records
		(username, password_hash, mfa_kind, clearance, created_at) VALUES ('alice', 'h', 'none', 2, '2025-03-01T12:00:00Z')`)
	require.NoError(t, err)

	s := NewSQLite(db, instrument.NewNoop())
	require.NoError(t, s.CreateFile(ctx, entity.File{Name: "plan", Owner: "alice", Classification: blp.Secret,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}))

	_, err = db.ExecContext(ctx, `PRAGMA ignore_check_constraints = ON`)
	require.NoError(t, err)

	for _, c := range []int{259, 256, -1} {
		_, err := db.ExecContext(ctx, `UPDATE filestore_files SET classification = ? WHERE name = 'plan'`, c)
		require.NoError(t, err)

		_, err = s.GetFile(ctx, "plan")
		assert.ErrorIs(t, err, blp.ErrInvalidRange, "classification=%d", c)

		_, err = s.ListFiles(ctx)
		assert.ErrorIs(t, err, blp.ErrInvalidRange, "classification=%d", c)
	}
}
