package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
)

type CurrentCodeOutput struct {
	Code      string
	Remaining time.Duration
}

// CurrentCode derives the code an authenticator app shows right now. It is
// meant for the local operator console only.
func (s *Usecase) CurrentCode(ctx context.Context, username string) (*CurrentCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "CurrentCode")
	defer span.End()

	rec, err := s.repoCred.GetAuthRecord(ctx, username)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("unknown user", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get auth record", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	totp, ok := rec.Factor.(entity.TOTPFactor)
	if !ok {
		return nil, goerror.NewBusiness("account has no second factor", goerror.CodeInvalidInput)
	}

	seed, err := s.openSeed(username, totp.Secret)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open totp secret", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	code, err := s.totp.GenerateCode(seed, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp code", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CurrentCodeOutput{Code: code, Remaining: s.totp.Remaining(now)}, nil
}
