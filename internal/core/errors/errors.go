package errors

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations
var (
	// Authentication
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	// Ticket validation (rejected before any store call)
	ErrCreatorRequired  = errors.New("ticket must have a creator")
	ErrTicketIDRequired = errors.New("ticket ID is required")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidPriority  = errors.New("invalid ticket priority")
	ErrInvalidStatus    = errors.New("invalid ticket status")
	ErrReasonRequired   = errors.New("escalation reason is required")
	ErrCommentRequired  = errors.New("comment text is required")

	// Not found (id does not resolve in the store)
	ErrTicketNotFound = errors.New("ticket not found")
	ErrUserNotFound   = errors.New("user not found")

	// Bulk task runner
	ErrBulkQueueFull = errors.New("bulk task queue is full")
	ErrRunnerClosed  = errors.New("bulk task runner is shut down")

	// Generic
	ErrRateLimited = errors.New("rate limit exceeded")
	ErrInternal    = errors.New("internal server error")
)

// PartialAuditError reports a mutation that persisted its ticket but
// failed to persist the derived audit comment. The ticket state is
// durable; only the audit trail has a gap. Callers decide whether to
// retry the comment or accept the gap - nothing here retries.
type PartialAuditError struct {
	TicketID int64
	Err      error
}

func (e *PartialAuditError) Error() string {
	return fmt.Sprintf("ticket %d updated but audit comment failed: %v", e.TicketID, e.Err)
}

func (e *PartialAuditError) Unwrap() error {
	return e.Err
}

// NewPartialAuditError wraps a comment persistence failure.
func NewPartialAuditError(ticketID int64, err error) *PartialAuditError {
	return &PartialAuditError{TicketID: ticketID, Err: err}
}

// AppError wraps errors with additional context for HTTP responses
type AppError struct {
	Err        error  // The underlying error
	Message    string // User-friendly message
	Code       string // Machine-readable error code
	StatusCode int    // HTTP status code
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors for common cases
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: 400,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		StatusCode: 401,
	}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "NOT_FOUND",
		StatusCode: 404,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "An unexpected error occurred",
		Code:       "INTERNAL_ERROR",
		StatusCode: 500,
	}
}
