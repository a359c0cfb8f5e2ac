package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

type WriteInput struct {
	Name string
	Text string
}

// Append adds Text and a newline to the end of the file (no write down).
func (s *Usecase) Append(ctx context.Context, in WriteInput) error {
	ctx, span := s.startSpan(ctx, "Append")
	defer span.End()

	return s.modify(ctx, in, true)
}

// Write replaces the file with Text and a newline (no write down).
func (s *Usecase) Write(ctx context.Context, in WriteInput) error {
	ctx, span := s.startSpan(ctx, "Write")
	defer span.End()

	return s.modify(ctx, in, false)
}

// modify serializes read-modify-write per file name so concurrent appends
// never lose each other's lines.
func (s *Usecase) modify(ctx context.Context, in WriteInput, appending bool) error {
	sub, err := currentSubject(ctx)
	if err != nil {
		return err
	}

	name, err := cleanName(in.Name)
	if err != nil {
		return err
	}

	if _, err := s.authorize(ctx, sub, name, blp.Write); err != nil {
		return err
	}

	unlock := s.locks.Lock(name)
	defer unlock()

	var cur []byte
	outcome := "overwritten"
	if appending {
		if cur, err = s.readObject(ctx, name); err != nil {
			return err
		}
		outcome = "appended"
	}

	if err := s.writeObject(ctx, name, append(cur, in.Text+"\n"...)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "file "+outcome, "file", name, "username", sub.Username)
	s.audit(ctx, AuditEvent{Kind: event.KindFileWritten, Username: sub.Username, Outcome: outcome, Resource: name})

	return nil
}
