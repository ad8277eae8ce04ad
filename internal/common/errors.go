// Package common defines shared constants and sentinel errors used across
// the farmkeeper server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// ErrorUnauthorized covers every authentication failure: missing, malformed,
	// expired or forged tokens, unknown users and wrong passwords.
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrAccessDenied means the caller is authenticated but holds no suitable
	// membership on the requested farm.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidToken is the single verification failure returned by the token
	// service. It never says why the token was rejected.
	ErrInvalidToken = errors.New("invalid token")
)
