package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Task execution errors. These never escape the orchestrator; they are
// carried inline in the per-task result map.
const (
	// ErrCodeCapabilityNotFound indicates the task name has no registered capability.
	ErrCodeCapabilityNotFound ErrorCode = "CAPABILITY_NOT_FOUND"
	// ErrCodeCapabilityFailed indicates the capability returned an error or panicked.
	ErrCodeCapabilityFailed ErrorCode = "CAPABILITY_FAILED"
	// ErrCodeTimeout indicates the task did not finish before its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the caller canceled the execution.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeUnauthorized indicates the request is unauthorized.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimited indicates the caller exceeded its request budget.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Retryable only describes whether a caller may resubmit; the orchestrator
// itself never retries.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:            true,
	ErrCodeServiceUnavailable: true,
	ErrCodeRateLimited:        true,
	ErrCodeCapabilityFailed:   false,
	ErrCodeCapabilityNotFound: false,
	ErrCodeCanceled:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
