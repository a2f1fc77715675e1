// internal/common/errors/errors_test.go
package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []map[string]interface{}
	warns  []map[string]interface{}
}

func (l *recordingLogger) Error(_ string, fields map[string]interface{}) {
	l.errors = append(l.errors, fields)
}

func (l *recordingLogger) Warn(_ string, fields map[string]interface{}) {
	l.warns = append(l.warns, fields)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, 400},
		{ErrCodeUnknownEngine, 400},
		{ErrCodeEngineTimeout, 504},
		{ErrCodeEngineExecutionFailed, 502},
		{ErrCodeDataUnavailable, 503},
		{ErrCodeInternal, 500},
		{ErrorCode("SOMETHING_ELSE"), 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestEngineErrors_Unwrap(t *testing.T) {
	timeout := NewEngineTimeoutError("external-ranker", fmt.Errorf("rank: %w", context.DeadlineExceeded))
	assert.True(t, IsTimeout(timeout))
	assert.Equal(t, "EngineTimeoutError", timeout.Kind())

	wrapped := fmt.Errorf("gateway: %w", NewEngineExecutionError("basic", io.ErrUnexpectedEOF))
	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeEngineExecutionFailed, stdErr.Code)
	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "RANKER", GetErrorCategory(ErrCodeRankerUnavailable))
	assert.Equal(t, "ENGINE", GetErrorCategory(ErrCodeEngineTimeout))
	assert.Equal(t, "DATA", GetErrorCategory(ErrCodeDataUnavailable))
	assert.True(t, IsRetryableErrorCode(ErrCodeDataUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeValidationFailed))
}

func TestHandle_WritesJSONErrorObject(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
		wantKeys   []string
		absentKeys []string
	}{
		{
			name:       "unknown engine lists names",
			err:        NewUnknownEngineError("nope", []string{"rule-based", "basic"}),
			wantStatus: 400,
			wantKind:   "UnknownEngineError",
			wantKeys:   []string{"available"},
		},
		{
			name:       "execution failure hides details",
			err:        NewEngineExecutionError("basic", fmt.Errorf("pq: password authentication failed")),
			wantStatus: 502,
			wantKind:   "EngineExecutionError",
			wantKeys:   []string{"engine"},
			absentKeys: []string{"details"},
		},
		{
			name:       "plain error becomes internal",
			err:        io.EOF,
			wantStatus: 500,
			wantKind:   "InternalError",
		},
		{
			name:       "fiber error keeps its status",
			err:        fiber.ErrTooManyRequests,
			wantStatus: 429,
			wantKind:   "RateLimitError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			app := fiber.New(fiber.Config{ErrorHandler: NewHTTPErrorHandler(log)})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantKind, body["error"])
			assert.NotEmpty(t, body["message"])
			for _, k := range tt.wantKeys {
				assert.Contains(t, body, k)
			}
			for _, k := range tt.absentKeys {
				assert.NotContains(t, body, k)
			}
			assert.NotContains(t, fmt.Sprint(body), "password")
			assert.Equal(t, 1, len(log.errors)+len(log.warns))
		})
	}
}
