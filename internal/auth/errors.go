package auth

import "errors"

// Sentinel errors for token handling.
var (
	// ErrTokenInvalid indicates a token that failed signature, expiry
	// or claim validation.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrNoToken indicates a request without a bearer token.
	ErrNoToken = errors.New("no token provided")
)
