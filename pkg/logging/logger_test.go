package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithContextAddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json", "api-server")

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "usr-1")
	logger.WithContext(ctx).Info("hello")

	line := decodeLine(t, &buf)
	assert.Equal(t, "api-server", line["component"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "usr-1", line["user_id"])
}

func TestWithContextWithoutValuesReturnsSameLogger(t *testing.T) {
	logger := Discard()
	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestNamedKeepsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json", "api-server").Named("reservation")
	assert.Equal(t, "api-server", logger.Component())

	logger.WithReservationID("rsv-1").Warn("status changed")
	line := decodeLine(t, &buf)
	assert.Equal(t, "reservation", line["subcomponent"])
	assert.Equal(t, "rsv-1", line["reservation_id"])
	assert.Equal(t, "WARN", line["level"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "text", "test")
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestHTTPRequestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, slog.LevelInfo, "json", "api-server")
	logger.HTTPRequestLog("GET", "/health", 200, 15*time.Millisecond, "127.0.0.1")

	line := decodeLine(t, &buf)
	assert.Equal(t, "HTTP request", line["msg"])
	assert.Equal(t, "/health", line["path"])
	assert.EqualValues(t, 200, line["status"])
	assert.EqualValues(t, 15, line["duration_ms"])
}

func TestWithErrorNilIsNoop(t *testing.T) {
	logger := Discard()
	assert.Same(t, logger, logger.WithError(nil))
}
