// Package shadow keeps credential records in a JSON-lines file, one
// versioned record per line.
package shadow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/jsonl"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type line struct {
	V            int       `json:"v"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	MFAKind      string    `json:"mfa_kind"`
	MFASecret    string    `json:"mfa_secret,omitempty"`
	Clearance    int       `json:"clearance"`
	CreatedAt    time.Time `json:"created_at"`
}

// Shadow loads the whole file once and serves reads from memory. Writes
// append to the file before they become visible.
type Shadow struct {
	fs   afero.Fs
	path string
	ins  instrument.Instrumentation

	mu      sync.RWMutex
	records map[string]entity.AuthRecord
}

// Open reads path. Any line that does not decode to the current record
// shape makes the whole file unusable.
func Open(fs afero.Fs, path string, ins instrument.Instrumentation) (*Shadow, error) {
	s := &Shadow{fs: fs, path: path, ins: ins, records: map[string]entity.AuthRecord{}}

	err := jsonl.Scan(fs, path, func(b []byte) error {
		var l line
		if err := jsonl.Decode(b, &l); err != nil {
			return errors.Join(entity.ErrMalformedRecord, err)
		}

		rec, err := l.record()
		if err != nil {
			return err
		}
		if _, dup := s.records[rec.Username]; dup {
			return fmt.Errorf("%w: duplicate username %q", entity.ErrMalformedRecord, rec.Username)
		}
		s.records[rec.Username] = rec

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (l line) record() (entity.AuthRecord, error) {
	rec := entity.AuthRecord{
		Username:     l.Username,
		PasswordHash: l.PasswordHash,
		CreatedAt:    l.CreatedAt,
	}

	clearance, err := blp.ParseLevel(l.Clearance)
	if err != nil {
		return rec, errors.Join(entity.ErrMalformedRecord, err)
	}
	rec.Clearance = clearance

	factor, err := entity.NewSecondFactor(entity.FactorKind(l.MFAKind), l.MFASecret)
	if err != nil {
		return rec, err
	}
	rec.Factor = factor

	return rec, entity.CheckRecord(l.V, &rec)
}

func (s *Shadow) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.shadow").Start(ctx, name)
}

func (s *Shadow) GetAuthRecord(ctx context.Context, username string) (*entity.AuthRecord, error) {
	_, span := s.startSpan(ctx, "GetAuthRecord")
	defer span.End()

	s.mu.RLock()
	rec, ok := s.records[username]
	s.mu.RUnlock()
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &rec, nil
}

func (s *Shadow) CreateAuthRecord(ctx context.Context, rec entity.AuthRecord) error {
	_, span := s.startSpan(ctx, "CreateAuthRecord")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Username]; ok {
		return goerror.ErrConflict
	}

	err := jsonl.Append(s.fs, s.path, line{
		V:            entity.RecordVersion,
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		MFAKind:      string(rec.Factor.Kind()),
		MFASecret:    entity.FactorSecret(rec.Factor),
		Clearance:    int(rec.Clearance),
		CreatedAt:    rec.CreatedAt.UTC(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	s.records[rec.Username] = rec

	return nil
}
