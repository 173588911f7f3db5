package apierr

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/gameshop/internal/middleware"
	"github.com/mcoot/gameshop/internal/model"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	InvalidKeys []string `json:"invalid_keys,omitempty"`
	Reference   string   `json:"reference,omitempty"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	CodeInvalidAction      = "INVALID_ACTION"
	CodeInvalidAmount      = "INVALID_AMOUNT"
	CodeBalanceOverflow    = "BALANCE_OVERFLOW"
	CodeInvalidKeys        = "INVALID_KEYS"
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodeInvalidProduct     = "INVALID_PRODUCT"
	CodePaymentDeclined    = "PAYMENT_DECLINED"
	CodeConflict           = "CONFLICT"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an error body
type httpError struct {
	status int
	body   ErrorResponse
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.body.Error
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// WriteError writes an error response. Internal errors are logged with the
// request id and only that id is returned to the caller.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	he := toHTTPError(err)
	body := he.body
	if he.status >= http.StatusInternalServerError {
		body.Reference = middleware.RequestIDFromContext(r.Context())
		if logger != nil {
			logger.Error("request failed",
				slog.String("request_id", body.Reference),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(body)
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var rejected *model.RejectedKeysError
	if errors.As(err, &rejected) {
		return &httpError{http.StatusBadRequest, ErrorResponse{
			Error:       "Invalid keys in data",
			Code:        CodeInvalidKeys,
			InvalidKeys: rejected.Keys,
		}}
	}

	switch {
	// Identity errors
	case errors.Is(err, model.ErrIdentityNotFound):
		return newError(http.StatusNotFound, CodeUserNotFound, "User not found")
	case errors.Is(err, model.ErrDuplicateUsername):
		return newError(http.StatusBadRequest, CodeUsernameExists, "Username already exists")
	case errors.Is(err, model.ErrInvalidCredentials):
		return newError(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password")
	case errors.Is(err, model.ErrUnauthorized):
		return newError(http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
	case errors.Is(err, model.ErrPasswordTooLong):
		return newError(http.StatusBadRequest, CodeInvalidRequest, "Password is too long")
	case errors.Is(err, model.ErrMissingField):
		return newError(http.StatusBadRequest, CodeInvalidRequest, err.Error())

	// Ledger errors
	case errors.Is(err, model.ErrInsufficientFunds):
		return newError(http.StatusBadRequest, CodeInsufficientFunds, "Not enough coins")
	case errors.Is(err, model.ErrInvalidAction):
		return newError(http.StatusBadRequest, CodeInvalidAction, "Invalid action")
	case errors.Is(err, model.ErrInvalidAmount):
		return newError(http.StatusBadRequest, CodeInvalidAmount, "Amount must be a positive integer")
	case errors.Is(err, model.ErrBalanceOverflow):
		return newError(http.StatusBadRequest, CodeBalanceOverflow, "Balance limit exceeded")

	// Catalog errors
	case errors.Is(err, model.ErrProductNotFound):
		return newError(http.StatusNotFound, CodeProductNotFound, "Product not found")
	case errors.Is(err, model.ErrInvalidProduct):
		return newError(http.StatusBadRequest, CodeInvalidProduct, err.Error())
	case errors.Is(err, model.ErrPaymentDeclined):
		return newError(http.StatusPaymentRequired, CodePaymentDeclined, "Payment declined")

	case errors.Is(err, model.ErrConflict):
		return newError(http.StatusConflict, CodeConflict, "Concurrent update, please retry")

	default:
		return newError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
	}
}

func newError(status int, code, message string) *httpError {
	return &httpError{status, ErrorResponse{Error: message, Code: code}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return newError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewForbiddenError rejects a request lacking administrative rights
func NewForbiddenError() error {
	return newError(http.StatusForbidden, CodeUnauthorized, "Admin token required")
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return newError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
}
