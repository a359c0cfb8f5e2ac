package usecase

import (
	"context"
	"sync"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
)

type fakeCredential struct {
	mu      sync.Mutex
	records map[string]entity.AuthRecord
	reads   int
	getErr  error
	makeErr error
}

func newFakeCredential() *fakeCredential {
	return &fakeCredential{records: map[string]entity.AuthRecord{}}
}

func (f *fakeCredential) GetAuthRecord(_ context.Context, username string) (*entity.AuthRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[username]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &rec, nil
}

func (f *fakeCredential) CreateAuthRecord(_ context.Context, rec entity.AuthRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.makeErr != nil {
		return f.makeErr
	}
	if _, ok := f.records[rec.Username]; ok {
		return goerror.ErrConflict
	}
	f.records[rec.Username] = rec

	return nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (f *fakeAudit) PublishAudit(_ context.Context, ev AuditEvent) error {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()

	return nil
}

func (f *fakeAudit) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}

	return out
}
