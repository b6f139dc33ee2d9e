// This file defines the typed error taxonomy shared by handlers and the
// dispatcher's error wrapper.
package bittypes

import "fmt"

// ErrorKind classifies a command failure for uniform rendering.
type ErrorKind string

// The recognised error kinds.
const (
	ErrAuthentication  ErrorKind = "authentication"
	ErrAPIKey          ErrorKind = "api_key"
	ErrInputValidation ErrorKind = "input_validation"
	ErrNetwork         ErrorKind = "network"
	ErrServer          ErrorKind = "server"
	ErrPermission      ErrorKind = "permission"
	ErrNotFound        ErrorKind = "not_found"
	ErrUnknown         ErrorKind = "unknown"
)

// DefaultHint returns the recovery hint emitted for a kind when the error
// carries none of its own. An empty hint suppresses the hint line.
func (k ErrorKind) DefaultHint() string {
	switch k {
	case ErrInputValidation:
		return "Check your input and try again"
	case ErrPermission:
		return "Admin privileges required"
	case ErrAuthentication:
		return "Check the configured credentials"
	case ErrAPIKey:
		return "Use /keys set <service>"
	case ErrNetwork:
		return "Check connectivity"
	case ErrUnknown:
		return "Try /diagnose"
	default:
		return ""
	}
}

// CommandError is the typed error handlers raise. The error wrapper is the
// sole place that renders one; handlers never write error text to the sink
// themselves.
type CommandError struct {
	Kind    ErrorKind
	Message string
	// Hint overrides the kind's default recovery hint when non-empty.
	Hint string
	// NoHint suppresses the hint line entirely.
	NoHint bool
	Err    error
}

// Error returns the human-readable message.
func (e *CommandError) Error() string {
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// RecoveryHint resolves the hint line for this error, or "" when none
// should be emitted.
func (e *CommandError) RecoveryHint() string {
	if e.NoHint {
		return ""
	}
	if e.Hint != "" {
		return e.Hint
	}
	return e.Kind.DefaultHint()
}

// InputErrorf builds an input_validation error.
func InputErrorf(format string, args ...any) *CommandError {
	return &CommandError{Kind: ErrInputValidation, Message: fmt.Sprintf(format, args...)}
}

// PermissionError builds a permission error.
func PermissionError(message string) *CommandError {
	return &CommandError{Kind: ErrPermission, Message: message}
}

// APIKeyError builds an api_key error naming the service to configure.
func APIKeyError(service, message string) *CommandError {
	return &CommandError{
		Kind:    ErrAPIKey,
		Message: message,
		Hint:    fmt.Sprintf("Use /keys set %s", service),
	}
}

// NetworkError wraps an upstream connectivity failure.
func NetworkError(err error) *CommandError {
	return &CommandError{Kind: ErrNetwork, Message: err.Error(), Err: err}
}

// ServerError wraps an upstream 5xx or internal state failure.
func ServerError(message string, err error) *CommandError {
	return &CommandError{Kind: ErrServer, Message: message, Err: err}
}

// NotFoundError builds a not_found error. The message already names the
// missing entity, so no hint line is emitted.
func NotFoundError(entity, name string) *CommandError {
	return &CommandError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, name),
		NoHint:  true,
	}
}
