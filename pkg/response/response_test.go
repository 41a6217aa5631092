package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	Failure(rec, http.StatusConflict, "DUPLICATE_PAYMENT_REFERENCE", "Payment with reference R-1 already exists")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "DUPLICATE_PAYMENT_REFERENCE", body.Code)
	assert.Equal(t, "Payment with reference R-1 already exists", body.Message)
}

func TestJSON_SuccessFlag(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w http.ResponseWriter)
		status  int
		success bool
	}{
		{name: "ok", write: func(w http.ResponseWriter) { Success(w, map[string]string{"a": "b"}) }, status: http.StatusOK, success: true},
		{name: "created", write: func(w http.ResponseWriter) { Created(w, nil) }, status: http.StatusCreated, success: true},
		{name: "unavailable", write: func(w http.ResponseWriter) { ServiceUnavailable(w, nil) }, status: http.StatusServiceUnavailable, success: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.success, body.Success)
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/loans", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-User-Role")
}

func TestLoggingMiddleware(t *testing.T) {
	log, hook := test.NewNullLogger()
	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/health", entry.Data["path"])
}
