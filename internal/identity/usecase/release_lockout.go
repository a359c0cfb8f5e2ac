package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

type ReleaseLockoutInput struct {
	Username string
}

// ReleaseLockout clears failure state for a username. The caller must hold
// the lockout/release permission.
func (s *Usecase) ReleaseLockout(ctx context.Context, in ReleaseLockoutInput) error {
	ctx, span := s.startSpan(ctx, "ReleaseLockout")
	defer span.End()

	admin, err := s.Authorize(ctx, "lockout", "release")
	if err != nil {
		return err
	}

	username := in.Username
	if !validator.ValidUsername(username) {
		return goerror.NewInvalidInput(nil, "username", "is invalid")
	}

	if err := s.tracker.Release(ctx, username); err != nil {
		slog.ErrorContext(ctx, "failed to release lockout", "username", username, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "lockout released", "username", username, "by", admin.Username)
	s.audit(ctx, AuditEvent{
		Kind:     event.KindLockoutReleased,
		Username: admin.Username,
		Outcome:  "released",
		Resource: username,
	})

	return nil
}
