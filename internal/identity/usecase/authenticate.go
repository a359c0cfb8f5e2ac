package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Prompt supplies one secret on demand. It is only called when the run
// reaches the step that needs the value.
type Prompt func(ctx context.Context) (string, error)

// Static returns a Prompt that always yields v.
func Static(v string) Prompt {
	return func(context.Context) (string, error) { return v, nil }
}

type AuthenticateInput struct {
	Username string
	Password Prompt
	MFACode  Prompt
}

// Authenticate runs the login state machine. A returned error means the run
// could not reach a decision (store or tracker failure, prompt error); every
// decision, including rejection, is reported through the outcome.
func (s *Usecase) Authenticate(ctx context.Context, in AuthenticateInput) (out *entity.AuthOutcome, err error) {
	ctx, span := s.startSpan(ctx, "Authenticate")
	defer span.End()

	defer func() {
		if err == nil {
			s.recordOutcome(ctx, in.Username, out)
		}
	}()

	username := in.Username
	if username == "" || !validator.ValidUsername(username) {
		return entity.Rejected(entity.ReasonInvalidInput), nil
	}

	rec, err := s.repoCred.GetAuthRecord(ctx, username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "auth record not found", "username", username)
		return entity.Rejected(entity.ReasonUnknownUser), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get auth record", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}

	st, err := s.tracker.CheckLocked(ctx, username, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to check lockout", "username", username, "error", err)
		return nil, goerror.NewServer(err)
	}
	if st.Locked {
		return entity.Locked(st.Remaining), nil
	}

	password, err := prompt(ctx, in.Password)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return entity.Rejected(entity.ReasonInvalidInput), nil
	}

	if out, err := s.verifyPassword(ctx, rec, password); out != nil || err != nil {
		return out, err
	}

	if totp, ok := rec.Factor.(entity.TOTPFactor); ok {
		code, err := prompt(ctx, in.MFACode)
		if err != nil {
			return nil, err
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return entity.Rejected(entity.ReasonInvalidInput), nil
		}
		seed, err := s.openSeed(username, totp.Secret)
		if err != nil {
			slog.ErrorContext(ctx, "failed to open totp secret", "username", username, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !s.totp.Validate(code, seed, s.clock.Now()) {
			slog.WarnContext(ctx, "second factor code mismatch", "username", username)
			return entity.Rejected(entity.ReasonBadMFACode), nil
		}
	} else if _, ok := rec.Factor.(entity.NoSecondFactor); !ok {
		slog.ErrorContext(ctx, "unknown second factor", "username", username)
		return nil, goerror.NewServer(entity.ErrMalformedRecord)
	}

	return entity.Authenticated(subject.Subject{Username: rec.Username, Clearance: rec.Clearance}), nil
}

// verifyPassword holds the per-username guard across re-check, hash verify
// and counter update, so concurrent failures are counted one at a time. It
// returns a nil outcome when the password matched.
func (s *Usecase) verifyPassword(ctx context.Context, rec *entity.AuthRecord, password string) (*entity.AuthOutcome, error) {
	release, err := s.tracker.Acquire(ctx, rec.Username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire lockout guard", "username", rec.Username, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer release()

	st, err := s.tracker.CheckLocked(ctx, rec.Username, s.clock.Now())
	if err != nil {
		return nil, goerror.NewServer(err)
	}
	if st.Locked {
		return entity.Locked(st.Remaining), nil
	}

	if s.argon2id.Verify(rec.PasswordHash, password) {
		if err := s.tracker.RecordSuccess(ctx, rec.Username); err != nil {
			slog.ErrorContext(ctx, "failed to reset lockout", "username", rec.Username, "error", err)
			return nil, goerror.NewServer(err)
		}
		return nil, nil
	}

	st, err = s.tracker.RecordFailure(ctx, rec.Username, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to record lockout failure", "username", rec.Username, "error", err)
		return nil, goerror.NewServer(err)
	}
	if st.Locked {
		slog.WarnContext(ctx, "account locked after repeated failures", "username", rec.Username)
		return entity.Locked(st.Remaining), nil
	}

	out := entity.Rejected(entity.ReasonBadPassword)
	out.AttemptsRemaining = st.AttemptsRemaining

	return out, nil
}

func prompt(ctx context.Context, p Prompt) (string, error) {
	if p == nil {
		return "", nil
	}

	return p(ctx)
}

func (s *Usecase) recordOutcome(ctx context.Context, username string, out *entity.AuthOutcome) {
	s.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", out.Status.String()),
		attribute.String("reason", out.Reason.String()),
	))

	ev := AuditEvent{Username: username, Outcome: out.Status.String()}
	switch out.Status {
	case entity.AuthAuthenticated:
		ev.Kind = event.KindAuthSucceeded
		ev.Detail = "clearance=" + out.Subject.Clearance.String()
	case entity.AuthLocked:
		ev.Kind = event.KindAuthLocked
		ev.Detail = "retry_after_seconds=" + strconv.Itoa(retryAfterSeconds(out))
	default:
		ev.Kind = event.KindAuthRejected
		ev.Detail = out.Reason.String()
	}
	s.audit(ctx, ev)
}

func retryAfterSeconds(out *entity.AuthOutcome) int {
	sec := int(out.LockRemaining.Seconds())
	if out.LockRemaining > 0 && sec == 0 {
		sec = 1
	}

	return sec
}

// OutcomeError maps a non-authenticated outcome to the error the transport
// layers return. It returns nil for AuthAuthenticated.
func OutcomeError(out *entity.AuthOutcome) error {
	switch out.Status {
	case entity.AuthAuthenticated:
		return nil
	case entity.AuthLocked:
		return goerror.WithFields(
			goerror.NewBusiness("account is temporarily locked", goerror.CodeLocked),
			"retry_after_seconds", strconv.Itoa(retryAfterSeconds(out)),
		)
	}

	switch out.Reason {
	case entity.ReasonInvalidInput:
		return goerror.NewInvalidInput(nil, "credentials", "username, password and second-factor code must not be empty")
	case entity.ReasonUnknownUser:
		return goerror.NewBusiness("unknown user", goerror.CodeUnauthorized)
	case entity.ReasonBadPassword:
		return goerror.WithFields(
			goerror.NewBusiness("incorrect password", goerror.CodeUnauthorized),
			"attempts_remaining", strconv.Itoa(out.AttemptsRemaining),
		)
	case entity.ReasonBadMFACode:
		return goerror.NewBusiness("invalid or expired second-factor code", goerror.CodeUnauthorized)
	default:
		return goerror.NewBusiness("authentication failed", goerror.CodeUnauthorized)
	}
}
