package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/BigRedEye/dc-hw/pkg/errors"
)

// downstreamError is the error envelope our services put on the wire.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

const maxErrorBody = 1 << 20

// ParseResponseError turns a non-2xx response from another service into an
// error that keeps the downstream status and error code. Structured bodies
// keep their code and message; anything else degrades to a plain error
// carrying the raw body. The response body is consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var body downstreamError
	if json.Unmarshal(raw, &body) == nil && body.Error != nil {
		return downstreamAppError(resp.StatusCode, body.Error.Code, body.Error.Message, serviceName)
	}

	return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(raw))
}

// downstreamAppError rebuilds an AppError from another service's status and
// error code so the caller's own HTTP layer maps it back to the same status.
func downstreamAppError(status int, code, message, serviceName string) error {
	qualified := fmt.Sprintf("%s: %s", serviceName, message)

	sentinel := apperrors.ErrInternal
	switch status {
	case http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case http.StatusBadRequest:
		sentinel = apperrors.ErrInvalidInput
	case http.StatusUnauthorized:
		sentinel = apperrors.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = apperrors.ErrForbidden
	case http.StatusConflict:
		sentinel = apperrors.ErrConflict
	case http.StatusServiceUnavailable:
		sentinel = apperrors.ErrServiceUnavail
	default:
		if status >= 500 {
			return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
		}
	}

	return &apperrors.AppError{
		Code:    code,
		Message: qualified,
		Status:  status,
		Err:     sentinel,
	}
}

// IsClientError reports whether the status is a 4xx. Requests rejected as
// invalid should not be retried or compensated.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
