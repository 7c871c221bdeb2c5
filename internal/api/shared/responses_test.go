package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureDefaultLogger swaps the default slog logger for a text logger at debug level.
func captureDefaultLogger(t *testing.T) *strings.Builder {
	t.Helper()
	var buf strings.Builder
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		data         interface{}
		expectedBody string
	}{
		{
			name:         "map payload",
			status:       http.StatusOK,
			data:         map[string]string{"status": "healthy"},
			expectedBody: `{"status":"healthy"}`,
		},
		{
			name:         "accepted status",
			status:       http.StatusAccepted,
			data:         map[string]int{"file_count": 2},
			expectedBody: `{"file_count":2}`,
		},
		{
			name:         "nil payload",
			status:       http.StatusOK,
			data:         nil,
			expectedBody: `null`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			RespondWithJSON(w, req, tc.status, tc.data)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestRespondWithJSONEncodingError(t *testing.T) {
	logBuf := captureDefaultLogger(t)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	// Channels cannot be encoded as JSON
	RespondWithJSON(w, req, http.StatusOK, map[string]interface{}{"ch": make(chan int)})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logBuf.String(), "failed to encode JSON response")
}

func TestRespondWithFile(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/tasks/x/download", nil)
	w := httptest.NewRecorder()

	RespondWithFile(w, req, "application/zip", "processed_images.zip", []byte("PK"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="processed_images.zip"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "2", w.Header().Get("Content-Length"))
	assert.Equal(t, "PK", w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(WithTraceID(req.Context(), "test-trace-id"))
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Task not found", response.Error)
	assert.Equal(t, "test-trace-id", response.TraceID)
}

func TestRespondWithErrorNoTraceID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RespondWithError(w, req, http.StatusUnauthorized, "Unauthorized")

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "Unauthorized", raw["error"])
	_, hasTrace := raw["trace_id"]
	assert.False(t, hasTrace, "empty trace id should be omitted")
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name             string
		statusCode       int
		message          string
		err              error
		elevate          bool
		expectedLogLevel string
	}{
		{
			name:             "server error",
			statusCode:       http.StatusInternalServerError,
			message:          "Processing failed",
			err:              errors.New("provider returned 502"),
			expectedLogLevel: "level=ERROR",
		},
		{
			name:             "client error",
			statusCode:       http.StatusBadRequest,
			message:          "Invalid image format",
			err:              errors.New("bad extension"),
			expectedLogLevel: "level=DEBUG",
		},
		{
			name:             "client error elevated",
			statusCode:       http.StatusUnauthorized,
			message:          "Invalid API key",
			err:              errors.New("signature mismatch"),
			elevate:          true,
			expectedLogLevel: "level=WARN",
		},
		{
			name:             "rate limited",
			statusCode:       http.StatusTooManyRequests,
			message:          "Rate limit exceeded",
			err:              errors.New("limiter empty"),
			expectedLogLevel: "level=WARN",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logBuf := captureDefaultLogger(t)
			req := httptest.NewRequest(http.MethodPost, "/process-parallel", nil)
			req = req.WithContext(WithTraceID(context.Background(), "test-trace-id"))
			w := httptest.NewRecorder()

			var opts []ResponseOption
			if tc.elevate {
				opts = append(opts, WithElevatedLogLevel())
			}
			RespondWithErrorAndLog(w, req, tc.statusCode, tc.message, tc.err, opts...)

			assert.Equal(t, tc.statusCode, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.message, response.Error)
			assert.Equal(t, "test-trace-id", response.TraceID)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, tc.expectedLogLevel)
			assert.Contains(t, logOutput, "trace_id=test-trace-id")
			assert.Contains(t, logOutput, "error_type=")
		})
	}
}

func TestRespondWithErrorAndLogRedactsSecrets(t *testing.T) {
	logBuf := captureDefaultLogger(t)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	err := errors.New("upstream call failed: Authorization: Bearer abc.def.ghi")
	RespondWithErrorAndLog(w, req, http.StatusInternalServerError, "Processing failed", err)

	assert.NotContains(t, logBuf.String(), "abc.def.ghi")
}

func TestTraceIDRoundTrip(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	assert.Len(t, GetTraceID(ctx), 36)

	ctx = WithTraceID(ctx, "fixed")
	assert.Equal(t, "fixed", GetTraceID(ctx))
}

type decodeTarget struct {
	Username  string `json:"username"   validate:"required"`
	RateLimit int    `json:"rate_limit" validate:"omitempty,min=1"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"username":"alice","rate_limit":10}`},
		{name: "unknown field", body: `{"username":"alice","admin":true}`, wantErr: true},
		{name: "malformed", body: `{"username":`, wantErr: true},
		{name: "trailing data", body: `{"username":"a"}{"username":"b"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var target decodeTarget
			err := DecodeJSON(req, &target)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", target.Username)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&decodeTarget{Username: "alice"}))
	assert.Error(t, ValidateRequest(&decodeTarget{}))
	assert.Error(t, ValidateRequest(&decodeTarget{Username: "alice", RateLimit: -1}))
}
