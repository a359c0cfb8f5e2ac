package identity

import (
	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/mlsgate/internal/identity/inbound"
	"github.com/shandysiswandi/mlsgate/internal/identity/outbound/mq"
	"github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/clock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/config"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/mlsgate/internal/pkg/hash"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/lockout"
	"github.com/shandysiswandi/mlsgate/internal/pkg/mfa"
	"github.com/shandysiswandi/mlsgate/internal/pkg/otp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
)

type Dependency struct {
	Credentials usecase.CredentialRepository `validate:"required"`
	Audit       *event.AuditPublisher        `validate:"required"`
	Goroutine   *goroutine.Manager           `validate:"required"`
	Enforcer    *casbin.Enforcer             `validate:"required"`
	Router      *router.Router               `validate:"required"`
	Config      config.Config                `validate:"required"`
	Instrument  instrument.Instrumentation   `validate:"required"`
	Argon2ID    hash.Hash                    `validate:"required"`
	Tracker     lockout.Tracker              `validate:"required"`
	Clock       clock.Clocker                `validate:"required"`
	Totp        otp.OTP                      `validate:"required"`
	Validator   validator.Validator          `validate:"required"`
	Secrets     mfa.Encryptor
}

// New wires the identity module and returns its usecase so other surfaces
// (the console, the filestore authenticator) share one instance.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoCredential: dep.Credentials,
		RepoAudit:      mq.NewMessaging(dep.Audit),
		Argon2ID:       dep.Argon2ID,
		Totp:           dep.Totp,
		Secrets:        dep.Secrets,
		Tracker:        dep.Tracker,
		Clock:          dep.Clock,
		Instrument:     dep.Instrument,
		Enforcer:       dep.Enforcer,
		Goroutine:      dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Validator, inbound.Options{
		OpenProvisioning: dep.Config.GetBool("modules.identity.open_provisioning"),
	})

	return uc, nil
}
