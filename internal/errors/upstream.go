package errors

import (
	"context"
	"errors"
	"net/http"
)

// FromStatus maps a non-2xx backend response to an AppError.
// The message is the server-provided text and may be empty; callers decide on a fallback.
func FromStatus(status int, message string) *AppError {
	return &AppError{
		Code:    codeForStatus(status),
		Message: message,
		Status:  status,
	}
}

func codeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeUnauthorized
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status == http.StatusConflict:
		return ErrCodeConflict
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
		return ErrCodeUnavailable
	default:
		return ErrCodeInternal
	}
}

// MapTransportError maps a failed round trip (no HTTP response) to an AppError.
// Context timeouts and cancellations keep their own codes; everything else is Unavailable.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:  ErrCodeTimeout,
			Cause: err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:  ErrCodeCanceled,
			Cause: err,
		}
	}

	return &AppError{
		Code:  ErrCodeUnavailable,
		Cause: err,
	}
}
