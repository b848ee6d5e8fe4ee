package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// status codes the dashboard API answers with
var dashboardStatusCodes = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestProperty_ErrorResponsesShareOneShape(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("code, message and timestamp are always set", prop.ForAll(
		func(message string, pick int) bool {
			status := dashboardStatusCodes[pick%len(dashboardStatusCodes)]

			w := httptest.NewRecorder()
			RespondWithError(w, status, message)

			if w.Code != status || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				return false
			}
			if resp.Error.Code != http.StatusText(status) || resp.Error.Message != message {
				return false
			}
			_, err := time.Parse(time.RFC3339, resp.Error.Timestamp)
			return err == nil && resp.Error.Details == nil
		},
		gen.AlphaString(),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithErrorDetails(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithErrorDetails(w, http.StatusBadGateway, "Failed to fetch products", map[string]interface{}{
		"category": "list",
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "Bad Gateway", resp.Error.Code)
	assert.Equal(t, "Failed to fetch products", resp.Error.Message)
	assert.Equal(t, "list", resp.Error.Details["category"])
}

func TestRespondWithValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantMessage string
	}{
		{"explicit message", "category is required", "category is required"},
		{"default message", "", "validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithValidationErrors(w, tt.message, []ValidationError{
				{Field: "category", Message: "category is required"},
				{Field: "price", Message: "price cannot be negative"},
			})

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)

			fields, ok := resp.Error.Details["validation_errors"].([]interface{})
			require.True(t, ok, "validation_errors should be a list: %v", resp.Error.Details)
			require.Len(t, fields, 2)
			first := fields[0].(map[string]interface{})
			assert.Equal(t, "category", first["field"])
		})
	}
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, http.StatusCreated, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"7"}`, w.Body.String())
}

func TestErrorHandlingMiddleware(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())

	t.Run("panic becomes 500", func(t *testing.T) {
		h := handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("store exploded")
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decodeError(t, w).Error.Message)
	})

	t.Run("normal responses pass through", func(t *testing.T) {
		h := handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("aborted handler keeps panicking", func(t *testing.T) {
		h := handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}
