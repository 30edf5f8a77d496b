package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
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
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation returns a generic validation error with a custom message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrMissingCorrelationID() *AppError {
	return New("VAL_002", "Webhook payload missing swap id or status", http.StatusBadRequest)
}

func ErrInvalidWebhookSignature() *AppError {
	return New("VAL_003", "Webhook signature verification failed", http.StatusUnauthorized)
}

// ---- Orders (ORD) ----

func ErrNotFound(entity string) *AppError {
	return New("ORD_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrNoSwapCreated() *AppError {
	return New("ORD_002", "Order has no swap yet, nothing to poll", http.StatusConflict)
}

func ErrUnsupportedAsset(asset string) *AppError {
	return New("ORD_003", fmt.Sprintf("Asset %s is not supported by the exchange", asset), http.StatusBadRequest)
}

// ---- Provider (PRV) ----

// ErrProvider wraps an exchange API failure. The upstream status and raw
// body are kept for diagnostics.
func ErrProvider(upstreamStatus int, body string, err error) *AppError {
	return Wrap("PRV_001",
		fmt.Sprintf("Exchange provider error (upstream status %d): %s", upstreamStatus, body),
		http.StatusBadGateway, err)
}

// ErrProviderTimeout marks the timeout subtype of a provider failure.
// Transient: callers must never translate it into an order transition.
func ErrProviderTimeout(err error) *AppError {
	return Wrap("PRV_002", "Exchange provider request timed out", http.StatusGatewayTimeout, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidOperatorKey() *AppError {
	return New("AUTH_001", "Invalid operator key", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrInvalidSweepSecret() *AppError {
	return New("AUTH_003", "Invalid sweep secret", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", "Internal storage error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}
