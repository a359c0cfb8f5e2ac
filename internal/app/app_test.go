package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/config"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goerror"
	"github.com/shandysiswandi/mlsgate/internal/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
app:
  node_id: 7
  server:
    max_goroutine: 8
    cors: "*"
    http:
      address: "127.0.0.1:0"
instrument:
  enabled: false
  log_level: error
  log_mask_fields: [password, mfa_secret, x-mfa-code, authorization]
hash:
  argon2id:
    pepper: test-pepper
    max_concurrent: 4
    memory_kib: 1024
    iterations: 1
    parallelism: 1
    salt_length: 16
    key_length: 32
mfa:
  secret_key: MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=
  totp:
    issuer: mlsgate
    period: 30
    skew: 1
database:
  driver: %s
  sqlite:
    path: %s
  file:
    dir: %s
lockout:
  driver: memory
  max_failures: 5
  duration_minutes: 10
storage:
  driver: local
  local:
    root: %s
messaging:
  driver: memory
  audit_destination: mlsgate.audit
authz:
  admins: [root]
modules:
  identity:
    open_provisioning: true
  filestore:
    max_bytes: 4096
`

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type errorEnvelope struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

type credentials struct {
	username string
	password string
	secret   string
}

type client struct {
	t       *testing.T
	baseURL string
	http    *http.Client
}

func startApp(t *testing.T, driver string) (*App, *client) {
	t.Helper()

	dir := t.TempDir()
	raw := fmt.Sprintf(testConfig, driver,
		filepath.Join(dir, "mlsgate.db"), filepath.Join(dir, "data"), filepath.Join(dir, "objects"))

	cfg, err := config.NewViperFromBytes("yaml", []byte(raw))
	require.NoError(t, err)

	app, err := NewWithConfig(cfg)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errChan := app.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Stop(ctx)
		assert.ErrorIs(t, <-errChan, http.ErrServerClosed)
	})

	return app, &client{
		t:       t,
		baseURL: "http://" + l.Addr().String(),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *client) do(method, path string, payload any, who *credentials) (*http.Response, []byte) {
	c.t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		require.NoError(c.t, json.NewEncoder(buf).Encode(payload))
		body = buf
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	require.NoError(c.t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		req.SetBasicAuth(who.username, who.password)
		if who.secret != "" {
			code, err := totp.GenerateCode(who.secret, time.Now())
			require.NoError(c.t, err)
			req.Header.Set("X-MFA-Code", code)
		}
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	return resp, respBody
}

func decodeSuccess(t *testing.T, body []byte, out any) successEnvelope {
	t.Helper()

	var env successEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}

	return env
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))

	return env
}

func provision(t *testing.T, c *client, username string, clearance int, withoutMFA bool) credentials {
	t.Helper()

	cred := credentials{username: username, password: "Gr4nite!Harbor"}
	resp, body := c.do(http.MethodPost, "/api/v1/accounts", map[string]any{
		"username":    username,
		"password":    cred.password,
		"clearance":   clearance,
		"without_mfa": withoutMFA,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var data struct {
		MFASecret string `json:"mfa_secret"`
	}
	decodeSuccess(t, body, &data)
	cred.secret = data.MFASecret

	return cred
}

func TestApp_EndToEnd(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverFile} {
		t.Run(driver, func(t *testing.T) {
			app, c := startApp(t, driver)

			resp, _ := c.do(http.MethodGet, "/health", nil, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			alice := provision(t, c, "alice", 2, false)
			require.NotEmpty(t, alice.secret)
			bob := provision(t, c, "bob", 0, true)
			assert.Empty(t, bob.secret)

			t.Run("DuplicateAccount", func(t *testing.T) {
				resp, body := c.do(http.MethodPost, "/api/v1/accounts", map[string]any{
					"username": "alice", "password": "An0ther!Secret", "clearance": 1,
				}, nil)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
				assert.NotEmpty(t, decodeError(t, body).Message)
			})

			t.Run("ClearanceOutOfRange", func(t *testing.T) {
				for _, clearance := range []int{259, 256, -1} {
					resp, body := c.do(http.MethodPost, "/api/v1/accounts", map[string]any{
						"username": "mallory", "password": "Gr4nite!Harbor", "clearance": clearance, "without_mfa": true,
					}, nil)
					assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "clearance=%d: %s", clearance, body)
				}

				_, err := app.Identity().CurrentCode(context.Background(), "mallory")
				assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(err))
			})

			t.Run("Login", func(t *testing.T) {
				code, err := totp.GenerateCode(alice.secret, time.Now())
				require.NoError(t, err)

				resp, body := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
					"username": alice.username, "password": alice.password, "mfa_code": code,
				}, nil)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				var data struct {
					Username string `json:"username"`
					Label    string `json:"clearance_label"`
				}
				decodeSuccess(t, body, &data)
				assert.Equal(t, "alice", data.Username)
				assert.Equal(t, "SECRET", data.Label)
			})

			t.Run("Unauthenticated", func(t *testing.T) {
				resp, _ := c.do(http.MethodGet, "/api/v1/files", nil, nil)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
			})

			t.Run("FileLifecycle", func(t *testing.T) {
				resp, body := c.do(http.MethodPost, "/api/v1/files", map[string]string{"name": "plan"}, &alice)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				var created struct {
					Owner string `json:"owner"`
					Label string `json:"classification_label"`
				}
				decodeSuccess(t, body, &created)
				assert.Equal(t, "alice", created.Owner)
				assert.Equal(t, "SECRET", created.Label)

				// bob may write up but not read up
				resp, _ = c.do(http.MethodGet, "/api/v1/files/plan", nil, &bob)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)

				resp, body = c.do(http.MethodPost, "/api/v1/files/plan/append", map[string]string{"text": "from bob"}, &bob)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				resp, body = c.do(http.MethodGet, "/api/v1/files/plan", nil, &alice)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				var read struct {
					Content string `json:"content"`
				}
				decodeSuccess(t, body, &read)
				assert.Equal(t, "from bob\n", read.Content)

				resp, body = c.do(http.MethodGet, "/api/v1/files", nil, &bob)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				var list []struct {
					Name     string `json:"name"`
					CanRead  bool   `json:"can_read"`
					CanWrite bool   `json:"can_write"`
				}
				env := decodeSuccess(t, body, &list)
				require.Len(t, list, 1)
				assert.False(t, list[0].CanRead)
				assert.True(t, list[0].CanWrite)
				assert.EqualValues(t, 1, env.Meta["total"])

				resp, _ = c.do(http.MethodGet, "/api/v1/files/missing", nil, &alice)
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			})

			t.Run("Lockout", func(t *testing.T) {
				wrong := credentials{username: "bob", password: "Wr0ng!Guess"}
				var last *http.Response
				for range 5 {
					last, _ = c.do(http.MethodPost, "/api/v1/access/check",
						map[string]any{"classification": 0, "mode": "read"}, &wrong)
				}
				assert.Equal(t, http.StatusLocked, last.StatusCode)
				assert.NotEmpty(t, last.Header.Get("Retry-After"))

				resp, _ := c.do(http.MethodPost, "/api/v1/access/check",
					map[string]any{"classification": 0, "mode": "read"}, &bob)
				assert.Equal(t, http.StatusLocked, resp.StatusCode)

				// only admins may release
				resp, _ = c.do(http.MethodDelete, "/api/v1/lockouts/bob", nil, &alice)
				assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			})

			t.Run("AuditTrail", func(t *testing.T) {
				require.NoError(t, app.goroutine.Wait())

				mem, ok := app.messaging.(*messaging.Memory)
				require.True(t, ok)

				var kinds []string
				for _, m := range mem.Messages() {
					assert.Equal(t, "mlsgate.audit", m.Topic)
					assert.NotContains(t, string(m.Message.Body), alice.password)

					var ev struct {
						Kind string `json:"kind"`
					}
					require.NoError(t, json.Unmarshal(m.Message.Body, &ev))
					kinds = append(kinds, ev.Kind)
				}
				joined := strings.Join(kinds, ",")
				for _, k := range []string{"account.provisioned", "auth.succeeded", "file.created", "file.denied", "file.written", "auth.locked"} {
					assert.Contains(t, joined, k)
				}
			})
		})
	}
}

func TestNewWithConfig_UnknownDriver(t *testing.T) {
	dir := t.TempDir()
	raw := fmt.Sprintf(testConfig, "oracle", filepath.Join(dir, "x.db"), dir, dir)
	cfg, err := config.NewViperFromBytes("yaml", []byte(raw))
	require.NoError(t, err)

	app, err := NewWithConfig(cfg)

	assert.Nil(t, app)
	assert.ErrorContains(t, err, "init database")
}

func TestSQLiteDSN(t *testing.T) {
	dsn := sqliteDSN("/tmp/x.db")

	assert.True(t, strings.HasPrefix(dsn, "file:/tmp/x.db?"))
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
	assert.Contains(t, dsn, "busy_timeout%285000%29")
}
