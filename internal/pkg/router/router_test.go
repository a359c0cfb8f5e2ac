package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/mlsgate/internal/pkg/config"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	return NewRouter(Config{Config: cfg, UUID: fixedID("cid-fixed"), Instrument: instrument.NewNoop()})
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}

	return rec, body
}

func TestRouter_PublicAndProtected(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "app: {}")
	r.Public(http.MethodGet, "/health")
	r.GET("/health", func(*Request) (any, error) { return map[string]string{"status": "ok"}, nil })
	r.GET("/secret/:name", func(req *Request) (any, error) {
		return map[string]string{"name": req.GetParam("name"), "who": req.Context().Value(ctxKey{}).(string)}, nil
	})

	t.Run("PublicRoute", func(t *testing.T) {
		rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cid-fixed", rec.Header().Get(HeaderCorrelationID))
		assert.Equal(t, map[string]any{"status": "ok"}, body["data"])
	})

	t.Run("ProtectedWithoutAuthenticator", func(t *testing.T) {
		rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/secret/x", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Authentication required", body["message"])
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("ProtectedAuthenticated", func(t *testing.T) {
		r.SetAuthenticator(AuthenticatorFunc(func(req *http.Request) (context.Context, error) {
			if req.Header.Get("Authorization") == "" {
				return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
			}
			return context.WithValue(req.Context(), ctxKey{}, "alice"), nil
		}))
		req := httptest.NewRequest(http.MethodGet, "/secret/plan", nil)
		req.Header.Set("Authorization", "Basic x")

		rec, body := do(t, r, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"name": "plan", "who": "alice"}, body["data"])
	})
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	r := newTestRouter(t, "app: {}")
	r.Public(http.MethodPost, "/fail/:kind")
	r.POST("/fail/:kind", func(req *Request) (any, error) {
		switch req.GetParam("kind") {
		case "locked":
			return nil, goerror.WithFields(goerror.NewBusiness("account locked", goerror.CodeLocked), "retry_after_seconds", "600")
		case "validation":
			return nil, goerror.NewInvalidInput(nil, "password", "too short")
		case "panic":
			panic("boom")
		default:
			return nil, context.DeadlineExceeded
		}
	})

	tests := []struct {
		kind       string
		wantStatus int
		wantMsg    string
	}{
		{kind: "locked", wantStatus: http.StatusLocked, wantMsg: "account locked"},
		{kind: "validation", wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation error"},
		{kind: "panic", wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{kind: "plain", wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rec, body := do(t, r, httptest.NewRequest(http.MethodPost, "/fail/"+tt.kind, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, body["message"])
			if tt.kind == "locked" {
				assert.Equal(t, "600", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, `
app:
  maintenance:
    endpoints: "/api/v1/files"
`)
	r.Public(http.MethodGet, "/api/v1/files")
	r.GET("/api/v1/files", func(*Request) (any, error) { return []string{}, nil })

	rec, body := do(t, r, httptest.NewRequest(http.MethodGet, "/api/v1/files", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "service is under maintenance", body["message"])
}

func TestRequest_DecodeBody(t *testing.T) {
	t.Parallel()

	type payload struct {
		Username string `json:"username"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "Valid", body: `{"username":"alice"}`},
		{name: "UnknownField", body: `{"username":"alice","admin":true}`, wantErr: true},
		{name: "TrailingValue", body: `{"username":"alice"}{}`, wantErr: true},
		{name: "Malformed", body: `{"username":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Request: httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))}

			var p payload
			err := req.DecodeBody(&p)

			if tt.wantErr {
				assert.Equal(t, goerror.CodeInvalidFormat, goerror.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", p.Username)
		})
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))

	req.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}

func TestSanitizeCID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", sanitizeCID("  abc "))
	assert.Empty(t, sanitizeCID("a\r\nb"))
	assert.Len(t, sanitizeCID(strings.Repeat("x", 300)), maxCorrelationIDLen)
}
