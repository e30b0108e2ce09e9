package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON structure returned to clients following RFC 7807.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody contains the error details sent to clients.
type ErrorBody struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Retryable bool                   `json:"retryable"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsValidation reports whether err wraps an AppError of the validation family
// (INVALID_INPUT, MISSING_FIELD, INVALID_FORMAT).
func IsValidation(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && IsValidationCode(appErr.Code)
}

// IsBackendRegistration reports whether err wraps a BACKEND_REGISTRATION_FAILED error.
func IsBackendRegistration(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == ErrCodeBackendRegistration
}

// IsNotFound reports whether err wraps a NOT_FOUND error.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == ErrCodeNotFound
}
