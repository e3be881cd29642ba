// Package errors provides standardized error handling for the notification pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Configuration-missing errors. A missing translator is deliberately NOT
	// in this list: it means the request type is disabled, not broken.
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeBuilderNotFound  ErrorCode = "BUILDER_NOT_FOUND"

	// Upstream-data-missing errors (referential corruption, never skipped).
	ErrCodeActivityNotFound ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeCommentNotFound  ErrorCode = "COMMENT_NOT_FOUND"
	ErrCodePersonNotFound   ErrorCode = "PERSON_NOT_FOUND"

	// Delivery and persistence errors.
	ErrCodeNotificationDeliveryFailed ErrorCode = "NOTIFICATION_DELIVERY_FAILED"
	ErrCodeEmailBuildFailed           ErrorCode = "EMAIL_BUILD_FAILED"
	ErrCodeEmailSendFailed            ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeDatabaseFailed             ErrorCode = "DATABASE_FAILED"

	// Inbound-mail validation errors. These describe messages, not bugs; the
	// ingester routes the message to the error folder and moves on.
	ErrCodeMessageInvalid        ErrorCode = "MESSAGE_INVALID"
	ErrCodeActionExecutionFailed ErrorCode = "ACTION_EXECUTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "No email template registered",
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBuilderNotFoundError creates a non-retryable builder registration error.
func NewBuilderNotFoundError(activityType string, activityID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeBuilderNotFound,
		Message:   "No email builder registered for activity type",
		Details:   fmt.Sprintf("activityType: %s, activityId: %d", activityType, activityID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewActivityNotFoundError creates a non-retryable missing-activity error.
func NewActivityNotFoundError(activityID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   "Activity not found",
		Details:   fmt.Sprintf("activityId: %d", activityID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCommentNotFoundError creates a non-retryable missing-comment error.
func NewCommentNotFoundError(commentID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeCommentNotFound,
		Message:   "Comment not found",
		Details:   fmt.Sprintf("commentId: %d", commentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersonNotFoundError creates a non-retryable missing-person error.
func NewPersonNotFoundError(detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodePersonNotFound,
		Message:   "Person not found",
		Details:   detail,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeliveryFailedError creates a retryable delivery error for a notifier.
func NewDeliveryFailedError(notifierKey string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationDeliveryFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("notifier: %s, error: %s", notifierKey, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewEmailBuildFailedError wraps a fatal failure building an email message.
func NewEmailBuildFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailBuildFailed,
		Message:   "Failed to build notification email",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewEmailSendFailedError creates a retryable send error.
func NewEmailSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Failed to send email",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewDatabaseError creates a retryable database error.
func NewDatabaseError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseFailed,
		Message:   "Database operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewMessageInvalidError creates a non-retryable inbound-message error.
func NewMessageInvalidError(detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMessageInvalid,
		Message:   "Inbound message failed validation",
		Details:   detail,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewActionExecutionError wraps a failure running the action selected from an
// inbound message.
func NewActionExecutionError(actionKey string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeActionExecutionFailed,
		Message:   "Inbound mail action failed",
		Details:   fmt.Sprintf("action: %s, error: %s", actionKey, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}
