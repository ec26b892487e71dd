// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

// Domain errors for authentication operations.
// These errors represent business logic failures and should be handled appropriately by upper layers.
var (
	// ErrInvalidUser indicates that a user record failed schema validation
	// (missing required field, password below the minimum length).
	// Validation errors wrap it together with the offending field.
	ErrInvalidUser = errors.New("user validation failed")

	// ErrInvalidCredentials indicates that the provided credentials are incorrect.
	// This is returned during login when email or password is invalid.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
