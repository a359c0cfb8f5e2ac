package inbound

import (
	"github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/blp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
)

// HTTPEndpoint exposes account, login and access-decision handlers.
type HTTPEndpoint struct {
	uc               uc
	validator        validator.Validator
	openProvisioning bool
}

// Provision creates an account and returns its second-factor secret once.
func (h *HTTPEndpoint) Provision(r *router.Request) (any, error) {
	if !h.openProvisioning {
		if _, err := h.uc.Authorize(r.Context(), "accounts", "create"); err != nil {
			return nil, err
		}
	}

	var req ProvisionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Provision(r.Context(), usecase.ProvisionInput{
		Username:   req.Username,
		Password:   req.Password,
		Clearance:  req.Clearance,
		WithoutMFA: req.WithoutMFA,
	})
	if err != nil {
		return nil, err
	}

	return ProvisionResponse{
		Username:  out.Record.Username,
		Clearance: int(out.Record.Clearance),
		Label:     out.Record.Clearance.String(),
		MFASecret: out.MFASecret,
		MFAURI:    out.MFAURI,
	}, nil
}

// Login runs the authentication flow once and reports the subject.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Authenticate(r.Context(), usecase.AuthenticateInput{
		Username: req.Username,
		Password: usecase.Static(req.Password),
		MFACode:  usecase.Static(req.MFACode),
	})
	if err != nil {
		return nil, err
	}
	if err := usecase.OutcomeError(out); err != nil {
		return nil, err
	}

	return LoginResponse{
		Username:  out.Subject.Username,
		Clearance: int(out.Subject.Clearance),
		Label:     out.Subject.Clearance.String(),
	}, nil
}

func (h *HTTPEndpoint) CheckAccess(r *router.Request) (any, error) {
	sub, ok := subject.Get(r.Context())
	if !ok {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	var req CheckAccessRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	if err := h.validator.Validate(req); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	classification, err := blp.ParseLevel(req.Classification)
	if err != nil {
		return nil, goerror.NewInvalidInput(nil, "classification", "must be between 0 and 3")
	}
	mode, _ := blp.ParseMode(req.Mode)
	allowed, err := h.uc.CheckAccess(r.Context(), usecase.CheckAccessInput{
		Subject:        sub,
		Classification: classification,
		Mode:           mode,
	})
	if err != nil {
		return nil, err
	}

	return CheckAccessResponse{
		Allowed:        allowed,
		Clearance:      int(sub.Clearance),
		Classification: req.Classification,
		Mode:           mode.String(),
	}, nil
}

func (h *HTTPEndpoint) ReleaseLockout(r *router.Request) (any, error) {
	err := h.uc.ReleaseLockout(r.Context(), usecase.ReleaseLockoutInput{Username: r.GetParam("username")})
	if err != nil {
		return nil, err
	}

	return ReleaseLockoutResponse{}, nil
}
