package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	filestoreuc "github.com/shandysiswandi/mlsgate/internal/filestore/usecase"
	identityuc "github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/clock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/config"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/mlsgate/internal/pkg/hash"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/lockout"
	"github.com/shandysiswandi/mlsgate/internal/pkg/messaging"
	"github.com/shandysiswandi/mlsgate/internal/pkg/mfa"
	"github.com/shandysiswandi/mlsgate/internal/pkg/otp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
	"github.com/shandysiswandi/mlsgate/internal/pkg/storage"
	"github.com/shandysiswandi/mlsgate/internal/pkg/uid"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	argon2id  hash.Hash
	uuid      uid.StringID
	snowflake uid.NumberID
	totp      otp.OTP
	secrets   mfa.Encryptor

	// resources
	pgConn      *pgxpool.Pool
	sqlConn     *sql.DB
	credentials identityuc.CredentialRepository
	catalog     filestoreuc.CatalogRepository
	cacheConn   redis.UniversalClient
	tracker     lockout.Tracker
	storage     storage.Storage
	messaging   messaging.Publisher
	audit       *event.AuditPublisher
	casbin      *casbin.Enforcer

	// modules
	identity  *identityuc.Usecase
	filestore *filestoreuc.Usecase

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New loads the configuration from CONFIG_PATH and wires the application.
// Any failure is fatal.
func New() *App {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	app, err := NewWithConfig(cfg)
	if err != nil {
		slog.Error("failed to init application", "error", err)
		os.Exit(1)
	}

	return app
}

// NewWithConfig wires the application from cfg. On failure every resource
// opened so far is closed again.
func NewWithConfig(cfg config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		config: cfg,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"instrument", app.initInstrument},
		{"libraries", app.initLibraries},
		{"database", app.initDatabase},
		{"lockout", app.initLockout},
		{"storage", app.initStorage},
		{"messaging", app.initMessaging},
		{"casbin", app.initCasbin},
		{"http server", app.initHTTPServer},
		{"modules", app.initModules},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			cancel()
			app.close(context.Background())
			return nil, fmt.Errorf("init %s: %w", step.name, err)
		}
	}

	return app, nil
}

// Identity exposes the shared identity usecase to local surfaces.
func (a *App) Identity() *identityuc.Usecase { return a.identity }

// Filestore exposes the shared filestore usecase to local surfaces.
func (a *App) Filestore() *filestoreuc.Usecase { return a.filestore }

// Handler returns the HTTP handler including CORS.
func (a *App) Handler() http.Handler { return a.httpServer.Handler }

func (a *App) addCloser(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// close runs closers in reverse registration order.
func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
	a.closers = nil
}
