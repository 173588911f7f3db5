package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Common errors used across the application
var (
	// Identity errors
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateSecret    = errors.New("secret already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrMissingField       = errors.New("missing required field")

	// Ledger errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrBalanceOverflow   = errors.New("balance would overflow")

	// Profile errors
	ErrRejectedKeys = errors.New("profile keys not allowed")

	// Catalog errors
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrPaymentDeclined = errors.New("payment declined")

	// Storage errors
	ErrConflict = errors.New("concurrent modification, retries exhausted")
)

// RejectedKeysError lists the top-level profile keys outside the allow-list
type RejectedKeysError struct {
	Keys []string
}

// NewRejectedKeysError builds the error with keys in sorted order
func NewRejectedKeysError(keys []string) *RejectedKeysError {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	return &RejectedKeysError{Keys: sorted}
}

func (e *RejectedKeysError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejectedKeys, strings.Join(e.Keys, ", "))
}

// Is lets errors.Is(err, ErrRejectedKeys) match
func (e *RejectedKeysError) Is(target error) bool {
	return target == ErrRejectedKeys
}
