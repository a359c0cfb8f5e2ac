package usecase

import (
	"context"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/clock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/mlsgate/internal/pkg/hash"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/lockout"
	"github.com/shandysiswandi/mlsgate/internal/pkg/mfa"
	"github.com/shandysiswandi/mlsgate/internal/pkg/otp"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// AuditEvent is what the usecase reports to the audit trail.
type AuditEvent struct {
	Kind     string
	Username string
	Outcome  string
	Detail   string
	Resource string
}

type repoAudit interface {
	PublishAudit(ctx context.Context, ev AuditEvent) error
}

// CredentialRepository is the credential store the usecase reads and writes.
type CredentialRepository interface {
	GetAuthRecord(ctx context.Context, username string) (*entity.AuthRecord, error)
	CreateAuthRecord(ctx context.Context, rec entity.AuthRecord) error
}

type Usecase struct {
	repoCred  CredentialRepository
	repoAudit repoAudit
	argon2id  hash.Hash
	totp      otp.OTP
	secrets   mfa.Encryptor
	tracker   lockout.Tracker
	clock     clock.Clocker
	ins       instrument.Instrumentation
	enforcer  *casbin.Enforcer
	goroutine *goroutine.Manager
	attempts  metric.Int64Counter
}

type Dependency struct {
	RepoCredential CredentialRepository
	RepoAudit      repoAudit
	Argon2ID       hash.Hash
	Totp           otp.OTP
	// Secrets seals TOTP seeds at rest. Nil stores them as generated.
	Secrets        mfa.Encryptor
	Tracker        lockout.Tracker
	Clock          clock.Clocker
	Instrument     instrument.Instrumentation
	Enforcer       *casbin.Enforcer
	Goroutine      *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	attempts, err := dep.Instrument.Meter("identity.usecase").Int64Counter(
		"identity.auth.attempts",
		metric.WithDescription("Authentication runs by terminal outcome"),
	)
	if err != nil {
		slog.Warn("failed to create auth attempts counter", "error", err)
		attempts = noop.Int64Counter{}
	}

	return &Usecase{
		repoCred:  dep.RepoCredential,
		repoAudit: dep.RepoAudit,
		argon2id:  dep.Argon2ID,
		totp:      dep.Totp,
		secrets:   dep.Secrets,
		tracker:   dep.Tracker,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		enforcer:  dep.Enforcer,
		goroutine: dep.Goroutine,
		attempts:  attempts,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

// audit publishes in the background; a slow or failing broker never delays
// or changes an authentication decision.
func (s *Usecase) audit(ctx context.Context, ev AuditEvent) {
	if s.repoAudit == nil {
		return
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoAudit.PublishAudit(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish audit event", "kind", ev.Kind, "error", err)
			return err
		}
		return nil
	})
}

// Authorize checks the authenticated subject in ctx against the casbin policy.
func (s *Usecase) Authorize(ctx context.Context, obj, act string) (subject.Subject, error) {
	sub, ok := subject.Get(ctx)
	if !ok {
		return subject.Subject{}, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	allowed, err := s.enforcer.Enforce(sub.Username, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "username", sub.Username, "error", err)
		return subject.Subject{}, goerror.NewServer(err)
	}

	if !allowed {
		slog.WarnContext(ctx, "subject not allowed", "username", sub.Username, "obj", obj, "act", act)
		return subject.Subject{}, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return sub, nil
}

func (s *Usecase) sealSeed(username, seed string) (string, error) {
	if s.secrets == nil {
		return seed, nil
	}

	return s.secrets.Seal(seed, mfa.Scope{Username: username, Purpose: mfa.PurposeOTPSeed})
}

func (s *Usecase) openSeed(username, stored string) (string, error) {
	if s.secrets == nil {
		return stored, nil
	}

	return s.secrets.Open(stored, mfa.Scope{Username: username, Purpose: mfa.PurposeOTPSeed})
}
