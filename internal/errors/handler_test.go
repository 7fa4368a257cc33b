package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/dataprocessing"
	"stockdash/internal/session"
	"stockdash/internal/validation"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, ProblemContentType, rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		errorCode string
		detail    string
	}{
		{
			name:      "missing column",
			err:       fmt.Errorf("normalize stock: %w", &dataprocessing.MissingColumnError{Column: "Bale No."}),
			status:    http.StatusUnprocessableEntity,
			errorCode: "MISSING_COLUMN",
			detail:    "Missing column: 'Bale No.'",
		},
		{
			name:      "type coercion",
			err:       &dataprocessing.TypeCoercionError{Column: "Bal.Pcs", Row: 3, Value: "abc"},
			status:    http.StatusUnprocessableEntity,
			errorCode: "TYPE_COERCION",
		},
		{
			name:      "parse",
			err:       &dataprocessing.ParseError{Pipeline: "sales", Reason: "unexpected column count"},
			status:    http.StatusUnprocessableEntity,
			errorCode: "PARSE_ERROR",
			detail:    "Failed to process file: sales: unexpected column count",
		},
		{"validation", validation.Field("page", "page is required"), http.StatusBadRequest, "VALIDATION_FAILED", ""},
		{"session not found", session.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND", ""},
		{"session expired", fmt.Errorf("get: %w", session.ErrSessionExpired), http.StatusNotFound, "SESSION_EXPIRED", ""},
		{"too many sessions", session.ErrTooManySessions, http.StatusServiceUnavailable, "TOO_MANY_SESSIONS", ""},
		{"no stock table", session.ErrNoStockTable, http.StatusConflict, "NO_STOCK_TABLE", ""},
		{"no sales table", session.ErrNoSalesTable, http.StatusConflict, "NO_SALES_TABLE", ""},
		{"max bytes", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", ""},
		{"file too large", fmt.Errorf("%w: big", validation.ErrFileTooLarge), http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", ""},
		{"unsupported", validation.ErrUnsupportedFile, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE", ""},
		{"mismatch", validation.ErrContentMismatch, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE", ""},
		{"empty", validation.ErrEmptyFile, http.StatusBadRequest, "INVALID_UPLOAD", ""},
		{"api error", ErrMissingFile, http.StatusBadRequest, "MISSING_FILE", ""},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", ""},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/sessions/abc/stock", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, float64(tt.status), body["status"])
			assert.Equal(t, tt.errorCode, body["error_code"])
			assert.Equal(t, "/api/sessions/abc/stock", body["instance"])
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body["detail"])
			}
		})
	}
}

func TestHandleError_MissingColumnExtension(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	newTestHandler().HandleError(rec, req, &dataprocessing.MissingColumnError{Column: "Quality Name"})

	body := decodeProblem(t, rec)
	assert.Equal(t, "Quality Name", body["column"])
	assert.Equal(t, TypeMissingColumn, body["type"])
}

func TestHandleError_ValidationDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", nil)
	rec := httptest.NewRecorder()

	newTestHandler().HandleError(rec, req, validation.Errors{
		{Field: "page", Message: "page must be one of: stock, sales"},
	})

	body := decodeProblem(t, rec)
	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "page", errs[0].(map[string]interface{})["field"])
}

func TestHandleError_Timeout(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	newTestHandler().HandleError(rec, req, fmt.Errorf("read: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestHandleError_StackOnlyWhenEnabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, req, fmt.Errorf("boom"))
	assert.NotContains(t, decodeProblem(t, rec), "stack")

	rec = httptest.NewRecorder()
	NewErrorHandler(nil, true).HandleError(rec, req, fmt.Errorf("boom"))
	assert.Contains(t, decodeProblem(t, rec), "stack")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestHandler()
	panicky := RecoveryMiddleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "PATCH")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusConflict, TypeConflict, "Conflict", "", "/x").
		WithExtension("error_code", "CONFLICT").
		WithExtension("status", "ignored")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusConflict), body["status"], "standard members win over extensions")
	assert.Equal(t, "CONFLICT", body["error_code"])
	assert.NotContains(t, body, "detail")
}
