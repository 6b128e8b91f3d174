// Package errors provides custom error types for the BudgetWise API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
	ErrDuplicateEmail    = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Wallet & transaction errors.
var (
	ErrWalletNotFound         = &AppError{Code: "WALLET_NOT_FOUND", Message: "Wallet not found", StatusCode: http.StatusNotFound}
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
)

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
)

// Payment gateway and deposit errors. Gateway errors carry a generic message:
// raw provider responses are logged via Internal, never returned to clients.
var (
	ErrGatewayUnavailable  = &AppError{Code: "GATEWAY_UNAVAILABLE", Message: "Payment gateway is not configured", StatusCode: http.StatusInternalServerError}
	ErrGatewayError        = &AppError{Code: "GATEWAY_ERROR", Message: "Payment gateway request failed", StatusCode: http.StatusInternalServerError}
	ErrPaymentNotCompleted = &AppError{Code: "PAYMENT_NOT_COMPLETED", Message: "Payment not completed", StatusCode: http.StatusBadRequest}
	ErrPaymentRefRequired  = &AppError{Code: "PAYMENT_REF_REQUIRED", Message: "Payment confirmation required", StatusCode: http.StatusBadRequest}
	ErrDuplicateDeposit    = &AppError{Code: "DUPLICATE_DEPOSIT", Message: "This payment has already been credited", StatusCode: http.StatusConflict}
	ErrDepositNotFound     = &AppError{Code: "DEPOSIT_NOT_FOUND", Message: "Deposit not found", StatusCode: http.StatusNotFound}
	ErrWalletNotCredited   = &AppError{Code: "WALLET_NOT_CREDITED", Message: "Payment succeeded but the wallet could not be credited; contact support", StatusCode: http.StatusInternalServerError}
)
