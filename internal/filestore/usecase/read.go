package usecase

import (
	"context"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

type ReadInput struct {
	Name string
}

type ReadOutput struct {
	File    entity.File
	Content string
}

// Read returns the contents of a file the caller may read (no read up).
func (s *Usecase) Read(ctx context.Context, in ReadInput) (*ReadOutput, error) {
	ctx, span := s.startSpan(ctx, "Read")
	defer span.End()

	sub, err := currentSubject(ctx)
	if err != nil {
		return nil, err
	}

	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}

	f, err := s.authorize(ctx, sub, name, blp.Read)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(name)
	b, err := s.readObject(ctx, name)
	unlock()
	if err != nil {
		return nil, err
	}

	s.audit(ctx, AuditEvent{Kind: event.KindFileRead, Username: sub.Username, Outcome: "allowed", Resource: name})

	return &ReadOutput{File: *f, Content: string(b)}, nil
}
