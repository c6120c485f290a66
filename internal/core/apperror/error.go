// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeUnbalancedMove         = "UNBALANCED_MOVE"
	CodeMovePosted             = "MOVE_POSTED"
	CodeEmptyMove              = "EMPTY_MOVE"
	CodePeriodClosed           = "PERIOD_CLOSED"
	CodeJournalPeriodClosed    = "JOURNAL_PERIOD_CLOSED"
	CodeLineReconciled         = "LINE_RECONCILED"
	CodeInvalidReconciliation  = "INVALID_RECONCILIATION"
	CodeDeferralImmutable      = "DEFERRAL_IMMUTABLE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, amounts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewUnbalancedMove is returned when a move cannot be posted because its
// lines do not sum to zero in company currency.
func NewUnbalancedMove(moveID any) *AppError {
	return &AppError{
		Code:       CodeUnbalancedMove,
		Message:    "Move is not balanced and cannot be posted",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"move_id": moveID},
	}
}

// NewMovePosted is returned on any attempt to modify a posted move.
func NewMovePosted(moveID any) *AppError {
	return &AppError{
		Code:       CodeMovePosted,
		Message:    "Posted moves cannot be modified",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"move_id": moveID},
	}
}

// NewEmptyMove is returned when posting a move without lines.
func NewEmptyMove(moveID any) *AppError {
	return &AppError{
		Code:       CodeEmptyMove,
		Message:    "Move has no lines and cannot be posted",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"move_id": moveID},
	}
}

// NewPeriodClosed creates error when trying to write into a closed period
func NewPeriodClosed(period string) *AppError {
	return &AppError{
		Code:       CodePeriodClosed,
		Message:    fmt.Sprintf("Period %s is closed for modifications", period),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period": period},
	}
}

// NewJournalPeriodClosed creates error when a journal-period binding is closed
func NewJournalPeriodClosed(journal, period string) *AppError {
	return &AppError{
		Code:       CodeJournalPeriodClosed,
		Message:    fmt.Sprintf("Journal %s is closed in period %s", journal, period),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"journal": journal, "period": period},
	}
}

// NewLineReconciled is returned when modifying or deleting a reconciled line.
func NewLineReconciled(lineID any) *AppError {
	return &AppError{
		Code:       CodeLineReconciled,
		Message:    "Reconciled lines cannot be modified",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"line_id": lineID},
	}
}

// NewInvalidReconciliation creates a reconciliation precondition error.
func NewInvalidReconciliation(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidReconciliation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewDeferralImmutable is returned on writes to an existing deferral snapshot.
func NewDeferralImmutable(accountID, fiscalYearID any) *AppError {
	return &AppError{
		Code:       CodeDeferralImmutable,
		Message:    "Deferral snapshots cannot be modified, only created or deleted",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"account_id": accountID, "fiscalyear_id": fiscalYearID},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// IsCode checks if error carries the given code
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeConcurrentModification
	}
	return false
}
