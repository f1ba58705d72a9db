package auth

import "net/http"

// Authentication and account errors. Each carries the HTTP status it
// maps to so handlers do not need a translation table.
type authError struct {
	msg    string
	status int
}

func (e *authError) Error() string   { return e.msg }
func (e *authError) StatusCode() int { return e.status }

var (
	// ErrInvalidCredentials is returned when the email is unknown or the
	// password does not match. The two cases are deliberately
	// indistinguishable to callers.
	ErrInvalidCredentials = &authError{"invalid credentials", http.StatusUnauthorized}

	// ErrInvalidToken is returned for missing, malformed, expired, or
	// badly signed tokens.
	ErrInvalidToken = &authError{"invalid or expired token", http.StatusUnauthorized}

	// ErrForbidden is returned when a valid token lacks the required role.
	ErrForbidden = &authError{"insufficient role", http.StatusForbidden}

	// ErrEmailTaken is returned when registering with an email that
	// already has an account.
	ErrEmailTaken = &authError{"email already registered", http.StatusConflict}
)
