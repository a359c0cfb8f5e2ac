package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

type CreateInput struct {
	Name string
}

// Create registers an empty file owned by the caller and classified at the
// caller's clearance.
func (s *Usecase) Create(ctx context.Context, in CreateInput) (*entity.File, error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer span.End()

	sub, err := currentSubject(ctx)
	if err != nil {
		return nil, err
	}

	name, err := cleanName(in.Name)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	f := entity.File{
		Name:           name,
		Owner:          sub.Username,
		Classification: sub.Clearance,
		CreatedAt:      s.clock.Now(),
	}

	err = s.repoCatalog.CreateFile(ctx, f)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.WithFields(goerror.NewBusiness("file already exists", goerror.CodeConflict), "name", "already taken")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create file", "file", name, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.writeObject(ctx, name, nil); err != nil {
		if rbErr := s.repoCatalog.DeleteFile(ctx, name); rbErr != nil {
			slog.ErrorContext(ctx, "failed to roll back catalog entry", "file", name, "error", rbErr)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "file created", "file", name, "owner", sub.Username,
		"classification", f.Classification.String())
	s.audit(ctx, AuditEvent{
		Kind:     event.KindFileCreated,
		Username: sub.Username,
		Outcome:  "created",
		Detail:   "classification=" + f.Classification.String(),
		Resource: name,
	})

	return &f, nil
}
