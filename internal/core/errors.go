// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrNoData         = &Error{Code: "NO_DATA", Message: "no price data available"}
	ErrResultNotFound = &Error{Code: "RESULT_NOT_FOUND", Message: "backtest result not found"}
	ErrJobNotFound    = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}

	// Simulation configuration errors: rejected before the run starts
	ErrUnknownIndicator = &Error{Code: "UNKNOWN_INDICATOR", Message: "unknown indicator"}
	ErrEmptyConditions  = &Error{Code: "EMPTY_CONDITIONS", Message: "condition group has no conditions"}
	ErrInvalidCash      = &Error{Code: "INVALID_CASH", Message: "initial cash must be positive"}
	ErrInvalidPosition  = &Error{Code: "INVALID_POSITION", Message: "max position must be in (0, 100]"}

	// Data-sparsity: absorbed per time step, never aborts a run
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for indicator"}

	// Upstream data provider errors
	ErrProviderFailed  = &Error{Code: "PROVIDER_FAILED", Message: "data provider request failed"}
	ErrProviderTimeout = &Error{Code: "PROVIDER_TIMEOUT", Message: "data provider timeout"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
