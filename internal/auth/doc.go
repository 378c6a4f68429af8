// Package auth issues and validates the JWT access tokens that guard
// the dashboard API.
//
// Tokens are HS256-signed with the shared secret from config.yaml and
// validated by signature and expiry alone; there is no server-side
// session store. The API middleware calls ParseToken on every request
// to a protected route.
package auth
