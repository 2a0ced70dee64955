package errors

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"

	// Profiles
	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeProfileExists   ErrorCode = "PROFILE_EXISTS"

	// Giveaways
	ErrCodeGiveawayNotFound   ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeGiveawayNotStarted ErrorCode = "GIVEAWAY_NOT_STARTED"
	ErrCodeGiveawayEnded      ErrorCode = "GIVEAWAY_ENDED"
	ErrCodeInvalidTimeWindow  ErrorCode = "INVALID_TIME_WINDOW"
	ErrCodeAlreadySignedUp    ErrorCode = "ALREADY_SIGNED_UP"
	ErrCodeNotOwner           ErrorCode = "NOT_OWNER"

	// Escrow / funding
	ErrCodeInsufficientBalance   ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeInsufficientAllowance ErrorCode = "INSUFFICIENT_ALLOWANCE"
	ErrCodeInsufficientGasFee    ErrorCode = "INSUFFICIENT_GAS_FEE"

	// Claims
	ErrCodeNoSlotsRemaining ErrorCode = "NO_SLOTS_REMAINING"
	ErrCodeAlreadyClaimed   ErrorCode = "ALREADY_CLAIMED"
	ErrCodeBurnNotVerified  ErrorCode = "BURN_NOT_VERIFIED"

	// Infrastructure
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeLedgerError   ErrorCode = "LEDGER_ERROR"
)

// AppError is the typed error surfaced to callers.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key/value pair to the error payload.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new application error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// NewProfileNotFoundError reports an unregistered identity.
func NewProfileNotFoundError(address string) *AppError {
	return Newf(ErrCodeProfileNotFound, "no profile registered for %s", address).
		WithDetail("address", address)
}

// NewGiveawayNotFoundError reports an unknown giveaway id.
func NewGiveawayNotFoundError(id string) *AppError {
	return Newf(ErrCodeGiveawayNotFound, "giveaway not found: %s", id).
		WithDetail("giveaway_id", id)
}

// NewInvalidTimeWindowError names the violated temporal rule.
func NewInvalidTimeWindowError(rule string) *AppError {
	return New(ErrCodeInvalidTimeWindow, rule)
}

// NewInsufficiencyError reports the exact deficit for a resource line.
// The shortfall is always reported positive.
func NewInsufficiencyError(code ErrorCode, resource string, needed, available decimal.Decimal) *AppError {
	shortfall := needed.Sub(available)
	return Newf(code, "insufficient %s: need %s, have %s net of escrow, short %s",
		resource, needed.String(), available.String(), shortfall.String()).
		WithDetail("needed", needed.String()).
		WithDetail("available", available.String()).
		WithDetail("shortfall", shortfall.String())
}

// NewDatabaseError wraps a persistence failure.
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// NewLedgerError wraps a chain gateway failure.
func NewLedgerError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeLedgerError, fmt.Sprintf("ledger operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError casts err to AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}

// CodeOf returns the code of an AppError, or ErrCodeInternal otherwise.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
