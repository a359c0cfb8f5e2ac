package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
	"github.com/shandysiswandi/mlsgate/internal/shared/subject"
)

// HeaderMFACode carries the second-factor code next to Basic credentials.
const HeaderMFACode = "X-MFA-Code"

// NewAuthenticator runs the full login flow for every protected request.
// There are no sessions: each request presents its own credentials.
func NewAuthenticator(uc uc) router.Authenticator {
	return router.AuthenticatorFunc(func(r *http.Request) (context.Context, error) {
		username, password, ok := r.BasicAuth()
		if !ok {
			return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
		}

		out, err := uc.Authenticate(r.Context(), usecase.AuthenticateInput{
			Username: username,
			Password: usecase.Static(password),
			MFACode:  usecase.Static(r.Header.Get(HeaderMFACode)),
		})
		if err != nil {
			return nil, err
		}
		if err := usecase.OutcomeError(out); err != nil {
			return nil, err
		}

		return subject.Set(r.Context(), out.Subject), nil
	})
}
