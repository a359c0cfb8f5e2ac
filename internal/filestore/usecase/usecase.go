package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mlsgate/internal/filestore/entity"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/clock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/config"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/keylock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/storage"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxBytes caps a single file when modules.filestore.max_bytes is unset.
const DefaultMaxBytes = 1 << 20

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

// CatalogRepository records which files exist, who owns them and at which
// level they are classified.
type CatalogRepository interface {
	CreateFile(ctx context.Context, f entity.File) error
	GetFile(ctx context.Context, name string) (*entity.File, error)
	ListFiles(ctx context.Context) ([]entity.File, error)
	DeleteFile(ctx context.Context, name string) error
}

type Usecase struct {
	repoCatalog CatalogRepository
	repoAudit   repoAudit
	storage     storage.Storage
	cfg         config.Config
	clock       clock.Clocker
	ins         instrument.Instrumentation
	goroutine   *goroutine.Manager
	locks       *keylock.Map
}

type Dependency struct {
	RepoCatalog CatalogRepository
	RepoAudit   repoAudit
	Storage     storage.Storage
	Config      config.Config
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
	Goroutine   *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoCatalog: dep.RepoCatalog,
		repoAudit:   dep.RepoAudit,
		storage:     dep.Storage,
		cfg:         dep.Config,
		clock:       dep.Clock,
		ins:         dep.Instrument,
		goroutine:   dep.Goroutine,
		locks:       keylock.New(),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("filestore.usecase").Start(ctx, name)
}

func (s *Usecase) maxBytes() int64 {
	if s.cfg != nil {
		if n := s.cfg.GetInt64("modules.filestore.max_bytes"); n > 0 {
			return n
		}
	}

	return DefaultMaxBytes
}

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

func currentSubject(ctx context.Context) (subject.Subject, error) {
	sub, ok := subject.Get(ctx)
	if !ok {
		return subject.Subject{}, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return sub, nil
}

// authorize loads name and applies Bell-LaPadula for mode. Denials are
// audited here so every caller reports them the same way.
func (s *Usecase) authorize(ctx context.Context, sub subject.Subject, name string, mode blp.Mode) (*entity.File, error) {
	f, err := s.getFile(ctx, name)
	if err != nil {
		return nil, err
	}

	allowed, err := blp.Decide(sub.Clearance, f.Classification, mode)
	if err != nil {
		slog.ErrorContext(ctx, "invalid level in access decision", "file", name, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "file access denied", "username", sub.Username, "file", name,
			"mode", mode.String(), "clearance", sub.Clearance.String(),
			"classification", f.Classification.String())
		s.audit(ctx, AuditEvent{
			Kind:     event.KindFileDenied,
			Username: sub.Username,
			Outcome:  "denied",
			Detail:   "mode=" + mode.String() + " classification=" + f.Classification.String(),
			Resource: name,
		})
		return nil, goerror.NewBusiness(denyMessage(mode), goerror.CodeForbidden)
	}

	return f, nil
}

func denyMessage(mode blp.Mode) string {
	if mode == blp.Read {
		return "access denied: no read up"
	}

	return "access denied: no write down"
}
