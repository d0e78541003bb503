// Package errors provides the standardized error taxonomy for the approval
// workflow and the notification pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Client-facing workflow errors
const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeSequence         ErrorCode = "SEQUENCE_ERROR"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
)

// Infrastructure errors
const (
	ErrCodeStorageFailed          ErrorCode = "STORAGE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeEventQueueFull         ErrorCode = "EVENT_QUEUE_FULL"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError reports malformed caller input.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidation, "Invalid input", details, false, nil)
}

// NewPermissionDeniedError reports a caller lacking the role for an action.
func NewPermissionDeniedError(details string) *StandardError {
	return newError(ErrCodePermissionDenied, "Permission denied", details, false, nil)
}

// NewSequenceError reports a claim that is not at the level the caller's role approves.
func NewSequenceError(expectedLevel, currentLevel int) *StandardError {
	return newError(ErrCodeSequence, "Claim is not awaiting this approval level",
		fmt.Sprintf("expectedLevel: %d, currentLevel: %d", expectedLevel, currentLevel), false, nil).
		WithMetadata("expectedLevel", expectedLevel).
		WithMetadata("currentLevel", currentLevel)
}

// NewInvalidStateError reports a status/level combination that does not allow the action.
func NewInvalidStateError(details string) *StandardError {
	return newError(ErrCodeInvalidState, "Claim state does not allow this action", details, false, nil)
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *StandardError {
	return newError(ErrCodeNotFound, fmt.Sprintf("%s not found", entity),
		fmt.Sprintf("%s: %s", entity, id), false, nil).
		WithMetadata("entity", entity)
}

// NewStorageError wraps a retryable persistence failure.
func NewStorageError(operation string, err error) *StandardError {
	return newError(ErrCodeStorageFailed, "Storage operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewNotificationSendFailedError wraps a retryable channel delivery failure.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true, err)
}

// NewEventQueueFullError reports a saturated transition event queue.
func NewEventQueueFullError(capacity int) *StandardError {
	return newError(ErrCodeEventQueueFull, "Transition event queue is full",
		fmt.Sprintf("capacity: %d", capacity), true, nil)
}

// ==========================
// 3. Classification
// ==========================

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// IsRetryableErrorCode reports whether callers may retry the failed operation.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeStorageFailed, ErrCodeNotificationSendFailed, ErrCodeEventQueueFull:
		return true
	}
	return false
}

// GetErrorCategory groups codes for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidation:
		return "validation"
	case ErrCodePermissionDenied:
		return "authorization"
	case ErrCodeSequence, ErrCodeInvalidState:
		return "workflow"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeStorageFailed:
		return "storage"
	case ErrCodeNotificationSendFailed, ErrCodeEventQueueFull:
		return "notification"
	default:
		return "internal"
	}
}

// ==========================
// 4. Boundary Mapping
// ==========================

// HTTPStatus maps a code to the status the transport layer should answer with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodePermissionDenied:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeSequence, ErrCodeInvalidState:
		return http.StatusConflict
	case ErrCodeEventQueueFull, ErrCodeStorageFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Response is the client-visible rendering of an error.
type Response struct {
	Status    int       `json:"-"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
}

// ToResponse recovers any error into a client-visible response. Internal
// details are withheld for non-taxonomy errors.
func ToResponse(err error) Response {
	stdErr := Normalize(err)
	resp := Response{
		Status:    HTTPStatus(stdErr.Code),
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Retryable: IsRetryableErrorCode(stdErr.Code),
	}
	if resp.Status < http.StatusInternalServerError {
		resp.Details = stdErr.Details
	}
	return resp
}
