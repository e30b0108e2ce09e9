package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Validation errors
const (
	// ErrCodeInvalidInput indicates a value has the wrong type or is otherwise invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required setting or field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a value does not have the expected format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Backend errors
const (
	// ErrCodeBackendRegistration indicates a storage connector failed to initialize.
	ErrCodeBackendRegistration ErrorCode = "BACKEND_REGISTRATION_FAILED"
	// ErrCodeDatabaseError indicates a storage operation failed after registration.
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeDatabaseError: true,
}

var validationCodes = map[ErrorCode]bool{
	ErrCodeInvalidInput:  true,
	ErrCodeMissingField:  true,
	ErrCodeInvalidFormat: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsValidationCode reports whether code belongs to the validation family.
func IsValidationCode(code ErrorCode) bool {
	return validationCodes[code]
}
