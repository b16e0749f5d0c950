// Package httputil holds the JSON envelopes every service responds with
// and the helpers handlers use to emit them.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
	"github.com/BigRedEye/dc-hw/pkg/logger"
	"github.com/BigRedEye/dc-hw/pkg/validator"
)

// Response is the envelope every endpoint answers with. Exactly one of
// Data and Error is set.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status. Once the header is out an
// encode failure cannot be reported to the client, so it is dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sentinelResponse maps a sentinel error to its wire representation.
type sentinelResponse struct {
	match   error
	status  int
	code    string
	message string
}

var sentinelResponses = []sentinelResponse{
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", "resource already exists"},
	{apperrors.ErrLoginTaken, http.StatusConflict, "LOGIN_TAKEN", "login already taken"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"},
	{apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "forbidden"},
	{apperrors.ErrConflict, http.StatusConflict, "CONFLICT", "conflict"},
	{apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service unavailable"},
}

// WriteError renders err through the standard envelope. AppErrors keep
// their own code, message, and status; bare sentinels get a canonical
// rendering; everything else becomes a logged 500 that leaks nothing.
// The request-scoped logger is preferred over the fallback so internal
// errors carry correlation and trace ids.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		WriteJSON(w, appErr.Status, Response{
			Error: &ErrorResponse{Code: appErr.Code, Message: appErr.Message, RequestID: requestID},
		})
		return
	}

	for _, s := range sentinelResponses {
		if errors.Is(err, s.match) {
			WriteJSON(w, s.status, Response{
				Error: &ErrorResponse{Code: s.code, Message: s.message, RequestID: requestID},
			})
			return
		}
	}

	if errors.Is(err, apperrors.ErrInvalidInput) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error(), RequestID: requestID},
		})
		return
	}

	l.ErrorContext(r.Context(), "internal error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	WriteJSON(w, http.StatusInternalServerError, Response{
		Error: &ErrorResponse{
			Code:      "INTERNAL_ERROR",
			Message:   "an internal error occurred",
			RequestID: requestID,
		},
	})
}

// PaginatedResponse is the envelope for list endpoints that page by
// plain page/per_page numbers.
type PaginatedResponse[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginatedResponse computes TotalPages and HasNext and guarantees
// Data serializes as [] rather than null when the page is empty.
func NewPaginatedResponse[T any](data []T, totalCount, page, perPage int) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	pages := (totalCount + perPage - 1) / perPage
	return PaginatedResponse[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// WriteValidationError renders a 400 with per-field messages when err is
// a validator.ValidationError, or a plain INVALID_INPUT otherwise.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	WriteJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

// ParseUUID parses a path parameter as a UUID. On failure it writes the
// 400 itself and returns false so the handler can just return.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "invalid UUID: " + param,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
