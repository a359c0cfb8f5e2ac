package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
)

type CheckAccessInput struct {
	Subject        subject.Subject
	Classification blp.Level
	Mode           blp.Mode
}

// CheckAccess applies Bell-LaPadula to an authenticated subject. Levels
// outside the scale are rejected, never coerced.
func (s *Usecase) CheckAccess(ctx context.Context, in CheckAccessInput) (bool, error) {
	_, span := s.startSpan(ctx, "CheckAccess")
	defer span.End()

	allowed, err := blp.Decide(in.Subject.Clearance, in.Classification, in.Mode)
	if errors.Is(err, blp.ErrInvalidRange) {
		return false, goerror.NewInvalidInput(nil, "level", "clearance and classification must be between 0 and 3")
	}
	if err != nil {
		return false, goerror.NewInvalidInput(nil, "mode", "must be read or write")
	}

	slog.DebugContext(ctx, "access decision", "username", in.Subject.Username,
		"clearance", in.Subject.Clearance.String(), "classification", in.Classification.String(),
		"mode", in.Mode.String(), "allowed", allowed)

	return allowed, nil
}
