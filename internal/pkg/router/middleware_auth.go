package router

import (
	"context"
	"net/http"
	"sync"

	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
)

// Authenticator establishes the caller's identity for a request and returns
// the context the handler should run with.
type Authenticator interface {
	Authenticate(r *http.Request) (context.Context, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (context.Context, error)

func (f AuthenticatorFunc) Authenticate(r *http.Request) (context.Context, error) { return f(r) }

type authSlot struct {
	mu sync.RWMutex
	a  Authenticator
}

func (s *authSlot) set(a Authenticator) {
	s.mu.Lock()
	s.a = a
	s.mu.Unlock()
}

func (s *authSlot) get() Authenticator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.a
}

func middlewareAuthentication(slot *authSlot, public func(method, path string) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			a := slot.get()
			if a == nil {
				writeError(r.Context(), w, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized))
				return
			}

			ctx, err := a.Authenticate(r)
			if err != nil {
				if setter, ok := w.(interface{ SetError(error) }); ok {
					setter.SetError(err)
				}
				writeError(r.Context(), w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
