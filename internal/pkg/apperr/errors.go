package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeBookingTaken = "BOOKING_CONFLICT"
	CodePolicy       = "POLICY_VIOLATION"
	CodePayment      = "PAYMENT_ERROR"
	CodeStore        = "STORE_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInternal     = "INTERNAL_ERROR"
)

// AppError is the error type every service returns to its handler.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by code so callers can write
// errors.Is(err, apperr.Policy("")).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// SlotConflict is the ConflictError raised when a slot is already claimed.
func SlotConflict(message string) *AppError {
	return New(CodeBookingTaken, message, http.StatusConflict)
}

func Policy(message string) *AppError {
	return New(CodePolicy, message, http.StatusUnprocessableEntity)
}

// Payment reports a declined operation. Provider detail stays in Err.
func Payment(message string, err error) *AppError {
	return Wrap(err, CodePayment, message, http.StatusPaymentRequired)
}

// PaymentUnavailable reports a provider that could not be reached.
func PaymentUnavailable(message string, err error) *AppError {
	return Wrap(err, CodePayment, message, http.StatusBadGateway)
}

func Store(err error) *AppError {
	return Wrap(err, CodeStore, "storage failure", http.StatusInternalServerError)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func Internal(err error) *AppError {
	return Wrap(err, CodeInternal, "internal error", http.StatusInternalServerError)
}

// From returns err as an *AppError, wrapping unknown errors as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
