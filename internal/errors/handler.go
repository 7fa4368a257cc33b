package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"stockdash/internal/dataprocessing"
	"stockdash/internal/infrastructure"
	"stockdash/internal/session"
	"stockdash/internal/validation"
)

// Problem types following RFC 7807
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
	TypeConflict         = "/errors/conflict"
	TypePayloadTooLarge  = "/errors/payload-too-large"
	TypeUnsupportedMedia = "/errors/unsupported-media-type"
)

// Report problem types
const (
	TypeMissingColumn   = "/errors/report/missing-column"
	TypeTypeCoercion    = "/errors/report/type-coercion"
	TypeParse           = "/errors/report/parse"
	TypeSessionNotFound = "/errors/session/not-found"
	TypeSessionExpired  = "/errors/session/expired"
	TypeNoTable         = "/errors/session/no-table"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	ctx := r.Context()
	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", requestID(ctx))

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		infrastructure.RecordError(ctx, err)
		if h.includeStack {
			problem.WithExtension("stack", string(debug.Stack()))
		}
	}
	h.logger.Log(ctx, level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if werr := problem.Write(w); werr != nil {
		h.logger.ErrorContext(ctx, "failed to write problem response", slog.String("error", werr.Error()))
	}
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed",
			verrs.Error(), path).
			WithExtension("error_code", "VALIDATION_FAILED").
			WithExtension("errors", []validation.FieldError(verrs))
	}

	if p := reportProblem(err, path); p != nil {
		return p
	}
	if p := sessionProblem(err, path); p != nil {
		return p
	}
	if p := uploadProblem(err, path); p != nil {
		return p
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", path).
		WithExtension("error_code", "INTERNAL_SERVER_ERROR")
}

// reportProblem maps normalizer failures; the detail is the message the
// dashboard shows for them.
func reportProblem(err error, path string) *ProblemDetails {
	detail := dataprocessing.UserMessage(err)

	var missing *dataprocessing.MissingColumnError
	if errors.As(err, &missing) {
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeMissingColumn, "Missing Column", detail, path).
			WithExtension("error_code", "MISSING_COLUMN").
			WithExtension("column", missing.Column)
	}

	var coercion *dataprocessing.TypeCoercionError
	if errors.As(err, &coercion) {
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeTypeCoercion, "Invalid Value", detail, path).
			WithExtension("error_code", "TYPE_COERCION").
			WithExtension("column", coercion.Column).
			WithExtension("row", coercion.Row).
			WithExtension("value", coercion.Value)
	}

	var parse *dataprocessing.ParseError
	if errors.As(err, &parse) {
		problem := NewProblemDetails(http.StatusUnprocessableEntity, TypeParse, "Unreadable Report", detail, path).
			WithExtension("error_code", "PARSE_ERROR")
		if parse.Pipeline != "" {
			problem.WithExtension("pipeline", parse.Pipeline)
		}
		return problem
	}
	return nil
}

func sessionProblem(err error, path string) *ProblemDetails {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return NewProblemDetails(http.StatusNotFound, TypeSessionNotFound, "Session Not Found",
			"The session does not exist. Start a new session.", path).
			WithExtension("error_code", "SESSION_NOT_FOUND")
	case errors.Is(err, session.ErrSessionExpired):
		return NewProblemDetails(http.StatusNotFound, TypeSessionExpired, "Session Expired",
			"The session has expired. Start a new session.", path).
			WithExtension("error_code", "SESSION_EXPIRED")
	case errors.Is(err, session.ErrTooManySessions):
		return NewProblemDetails(http.StatusServiceUnavailable, TypeServiceDown, "Service Unavailable",
			"Too many active sessions. Please try again later.", path).
			WithExtension("error_code", "TOO_MANY_SESSIONS")
	case errors.Is(err, session.ErrNoStockTable):
		return NewProblemDetails(http.StatusConflict, TypeNoTable, "No Stock Report",
			"Upload a stock report first.", path).
			WithExtension("error_code", "NO_STOCK_TABLE")
	case errors.Is(err, session.ErrNoSalesTable):
		return NewProblemDetails(http.StatusConflict, TypeNoTable, "No Sales Report",
			"Upload a sales order report first.", path).
			WithExtension("error_code", "NO_SALES_TABLE")
	}
	return nil
}

func uploadProblem(err error, path string) *ProblemDetails {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			fmt.Sprintf("The request body exceeds the maximum allowed size of %d bytes", maxBytes.Limit), path).
			WithExtension("error_code", "PAYLOAD_TOO_LARGE").
			WithExtension("max_bytes", maxBytes.Limit)
	case errors.Is(err, validation.ErrFileTooLarge):
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			err.Error(), path).
			WithExtension("error_code", "PAYLOAD_TOO_LARGE")
	case errors.Is(err, validation.ErrUnsupportedFile), errors.Is(err, validation.ErrContentMismatch):
		return NewProblemDetails(http.StatusUnsupportedMediaType, TypeUnsupportedMedia, "Unsupported File",
			err.Error(), path).
			WithExtension("error_code", "UNSUPPORTED_FILE")
	case errors.Is(err, validation.ErrEmptyFile), errors.Is(err, validation.ErrUnknownUploadKind):
		return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Invalid Upload",
			err.Error(), path).
			WithExtension("error_code", "INVALID_UPLOAD")
	}
	return nil
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.StatusCode {
	case http.StatusBadRequest:
		problemType = TypeValidation
	case http.StatusNotFound:
		problemType = TypeNotFound
	case http.StatusConflict:
		problemType = TypeConflict
	case http.StatusRequestEntityTooLarge:
		problemType = TypePayloadTooLarge
	case http.StatusTooManyRequests:
		problemType = TypeRateLimit
	case http.StatusServiceUnavailable:
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// HandlePanic responds to a recovered panic with a 500 problem.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	ctx := r.Context()
	reqID := requestID(ctx)

	h.logger.ErrorContext(ctx, "panic recovered",
		slog.Any("panic", recovered),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)
	infrastructure.RecordError(ctx, fmt.Errorf("panic: %v", recovered))

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", string(debug.Stack()))
	}
	_ = problem.Write(w)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", requestID(r.Context()))
	_ = problem.Write(w)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethodNotAllowed,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", requestID(r.Context()))
	_ = problem.Write(w)
}

// RecoveryMiddleware provides panic recovery with proper error responses
func RecoveryMiddleware(handler *ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					handler.HandlePanic(w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requestID prefers chi's request ID and falls back to the trace ID.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return infrastructure.GetTraceID(ctx)
}
