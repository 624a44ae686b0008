package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure categories every operation reports.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindConflict            Kind = "CONFLICT"
	KindExpired             Kind = "EXPIRED"
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"
	KindStoreUnavailable    Kind = "STORE_UNAVAILABLE"
	KindDeliveryFailed      Kind = "DELIVERY_FAILED"
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindRateLimited         Kind = "RATE_LIMITED"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, kind Kind, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, kind Kind, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KindOf returns the kind of the first AppError in err's chain.
// Errors that never went through this package are reported as store failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStoreUnavailable
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// ---- Payment & Settlement (PAY) ----

func ErrInsufficientFunds() *AppError {
	return New("PAY_001", KindConstraintViolation, "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidAmount() *AppError {
	return New("PAY_002", KindInvalidInput, "Invalid amount", http.StatusBadRequest)
}

func ErrUnsupportedCurrency(currency string) *AppError {
	return New("PAY_003", KindInvalidInput, fmt.Sprintf("Unsupported currency %q", currency), http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("PAY_004", KindNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrMerchantUnlinked() *AppError {
	return New("PAY_005", KindNotFound, "This merchant is not connected to any user", http.StatusNotFound)
}

func ErrInvalidStatusTransition(from, to string) *AppError {
	return New("PAY_006", KindConstraintViolation,
		fmt.Sprintf("Payment status cannot change from %s to %s", from, to), http.StatusConflict)
}

func ErrPaymentImmutable() *AppError {
	return New("PAY_007", KindConstraintViolation, "Amount and currency can only change while a payment is pending", http.StatusConflict)
}

func ErrPaymentNotDeletable() *AppError {
	return New("PAY_008", KindConstraintViolation, "Only pending or failed payments can be deleted", http.StatusConflict)
}

func ErrPaymentNotCancellable() *AppError {
	return New("PAY_009", KindConstraintViolation, "Failed payments cannot be cancelled", http.StatusConflict)
}

func ErrConcurrentModification() *AppError {
	return New("PAY_010", KindConflict, "Payment was modified concurrently, retry the request", http.StatusConflict)
}

func ErrIdempotencyKeyReused() *AppError {
	return New("PAY_011", KindConflict, "Idempotency key was already used for a different payment", http.StatusConflict)
}

// ---- Verification (VER) ----

func ErrCodeNotFound() *AppError {
	return New("VER_001", KindNotFound, "No verification code has been issued", http.StatusNotFound)
}

func ErrCodeExpired() *AppError {
	return New("VER_002", KindExpired, "Verification code expired", http.StatusGone)
}

func ErrCodeMismatch() *AppError {
	return New("VER_003", KindInvalidInput, "Invalid verification code", http.StatusBadRequest)
}

func ErrCodeConsumed() *AppError {
	return New("VER_004", KindConflict, "Verification code already used", http.StatusConflict)
}

func ErrResendTooSoon() *AppError {
	return New("VER_005", KindRateLimited, "A code was sent recently, try again later", http.StatusTooManyRequests)
}

func ErrDeliveryFailed(err error) *AppError {
	return Wrap("VER_006", KindDeliveryFailed, "Verification code could not be delivered", http.StatusBadGateway, err)
}

func ErrNotVerified() *AppError {
	return New("VER_007", KindUnauthorized, "Phone number has not been verified", http.StatusForbidden)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", KindUnauthorized, "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", KindConflict, "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", KindUnauthorized, "Invalid or expired token", http.StatusUnauthorized)
}

func ErrUserNotVerified() *AppError {
	return New("AUTH_004", KindUnauthorized, "User account is not verified", http.StatusForbidden)
}

func ErrEmailExists() *AppError {
	return New("AUTH_005", KindConflict, "Email already exists", http.StatusConflict)
}

func ErrPhoneExists() *AppError {
	return New("AUTH_006", KindConflict, "Phone number already registered", http.StatusConflict)
}

func ErrForbidden() *AppError {
	return New("AUTH_007", KindUnauthorized, "Not allowed to access this resource", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", KindRateLimited, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStoreUnavailable(err error) *AppError {
	return Wrap("SYS_002", KindStoreUnavailable, "Storage temporarily unavailable", http.StatusServiceUnavailable, err)
}

func ErrRollbackFailed(err error) *AppError {
	return Wrap("SYS_003", KindStoreUnavailable, "Transaction rollback failed", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", KindStoreUnavailable, "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a REQ_001 input validation error.
func Validation(message string) *AppError {
	return New("REQ_001", KindInvalidInput, message, http.StatusBadRequest)
}
