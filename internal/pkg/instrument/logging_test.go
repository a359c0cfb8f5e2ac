package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(newHandler(&Config{
		ServiceName: "mlsgate-test",
		MaskFields:  []string{"password", "MFA_Secret", "authorization"},
		LogLevel:    "debug",
		LogOutput:   buf,
	}, nil))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	return out
}

func TestLogging_MasksSecrets(t *testing.T) {
	t.Parallel()

	t.Run("TopLevelAttr", func(t *testing.T) {
		var buf bytes.Buffer

		newTestLogger(&buf).Info("provision", "username", "alice", "password", "Tr0ub4dor&3")

		line := decodeLine(t, &buf)
		assert.Equal(t, "alice", line["username"])
		assert.Equal(t, "***", line["password"])
	})

	t.Run("GroupAndWithAttrs", func(t *testing.T) {
		var buf bytes.Buffer

		newTestLogger(&buf).
			With("authorization", "Basic YWxpY2U6eA==").
			Info("req", slog.Group("body", slog.String("mfa_secret", "JBSWY3DP"), slog.Int("clearance", 2)))

		line := decodeLine(t, &buf)
		assert.Equal(t, "***", line["authorization"])
		body := line["body"].(map[string]any)
		assert.Equal(t, "***", body["mfa_secret"])
		assert.InDelta(t, 2, body["clearance"], 0)
	})

	t.Run("JSONString", func(t *testing.T) {
		var buf bytes.Buffer

		newTestLogger(&buf).Info("req", "request.body", `{"username":"bob","password":"hunter2!A"}`)

		line := decodeLine(t, &buf)
		assert.JSONEq(t, `{"username":"bob","password":"***"}`, line["request.body"].(string))
	})

	t.Run("MapValue", func(t *testing.T) {
		var buf bytes.Buffer

		newTestLogger(&buf).Info("hdr", "headers", map[string]string{"Authorization": "Basic x", "Accept": "*/*"})

		line := decodeLine(t, &buf)
		headers := line["headers"].(map[string]any)
		assert.Equal(t, "***", headers["Authorization"])
		assert.Equal(t, "*/*", headers["Accept"])
	})
}

func TestLogging_ContextAndKeys(t *testing.T) {
	t.Parallel()

	// Arrange
	var buf bytes.Buffer
	ctx := SetCorrelationID(context.Background(), "cid-123")

	// Act
	newTestLogger(&buf).InfoContext(ctx, "hello")

	// Assert
	line := decodeLine(t, &buf)
	assert.Equal(t, "cid-123", line["_cID"])
	assert.Equal(t, "mlsgate-test", line["service"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
	assert.Contains(t, line["file"], "internal/pkg/instrument/logging_test.go:")
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "x", GetCorrelationID(SetCorrelationID(context.Background(), "x")))
}

func TestNewNoop(t *testing.T) {
	t.Parallel()

	ins := NewNoop()

	_, span := ins.Tracer("t").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, ins.Shutdown(context.Background()))
}
