// Package common defines shared constants and sentinel errors used across
// client layers of GophBlog. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Validation errors.
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
