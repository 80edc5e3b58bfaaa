package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/audit"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:43120"
	require.Equal(t, "10.0.0.5", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 198.51.100.7 , 10.0.0.1")
	require.Equal(t, "198.51.100.7", ClientIP(req))
}

func TestRequestMetadata(t *testing.T) {
	var got audit.Request
	handler := RequestMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.RequestFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/1/suspend", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	req.Header.Set("User-Agent", "tickr-cli/1.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, audit.Request{IP: "192.0.2.1", UserAgent: "tickr-cli/1.0"}, got)
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Contains(t, buf.String(), `"status":418`)
	require.Contains(t, buf.String(), `"path":"/health"`)
	require.Contains(t, buf.String(), `"level":"warn"`)
}
