package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/mlsgate/internal/identity/entity"
	"github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
)

type uc interface {
	Authenticate(ctx context.Context, in usecase.AuthenticateInput) (*entity.AuthOutcome, error)
	Provision(ctx context.Context, in usecase.ProvisionInput) (*usecase.ProvisionOutput, error)
	CheckAccess(ctx context.Context, in usecase.CheckAccessInput) (bool, error)
	ReleaseLockout(ctx context.Context, in usecase.ReleaseLockoutInput) error
	Authorize(ctx context.Context, obj, act string) (subject.Subject, error)
}

// Options tune how the identity endpoints are exposed.
type Options struct {
	// OpenProvisioning lets anyone create accounts. When false the caller
	// needs the accounts/create permission.
	OpenProvisioning bool
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, v validator.Validator, opt Options) {
	end := &HTTPEndpoint{uc: uc, validator: v, openProvisioning: opt.OpenProvisioning}

	r.SetAuthenticator(NewAuthenticator(uc))

	r.Public(http.MethodPost, "/api/v1/auth/login")
	if opt.OpenProvisioning {
		r.Public(http.MethodPost, "/api/v1/accounts")
	}

	r.POST("/api/v1/accounts", end.Provision)
	r.POST("/api/v1/auth/login", end.Login)
	r.POST("/api/v1/access/check", end.CheckAccess)          // need authenticated
	r.DELETE("/api/v1/lockouts/:username", end.ReleaseLockout) // need authenticated & authorization
}
