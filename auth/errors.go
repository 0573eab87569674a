package auth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidInput     = "invalid_input"
	TextCodeDuplicateUser    = "duplicate_username"
	TextCodeInvalidCreds     = "invalid_credentials"
	TextCodeUnauthenticated  = "unauthenticated"
	TextCodeTokenExpired     = "token_expired"
	TextCodeTokenMalformed   = "token_malformed"
	TextCodeNotFound         = "not_found"
	TextCodeStoreUnavailable = "store_unavailable"
)

// ErrInvalidInput is returned when a required field is missing or empty.
var ErrInvalidInput = errors.New("missing required fields", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateUsername is returned when registering an already taken username.
var ErrDuplicateUsername = errors.New("username already taken", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUser).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is returned for both an unknown username and a wrong
// password. The message must stay identical for the two cases so the response
// cannot be used to enumerate usernames.
var ErrInvalidCredentials = errors.New("invalid username or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is returned when a request presents no token at all.
var ErrUnauthenticated = errors.New("authentication token required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a presented token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuthz).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeForbidden)

// ErrTokenMalformed is returned for tampered, malformed, or otherwise
// unverifiable tokens.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuthz).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is returned when no record matches the requested user.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrStoreUnavailable wraps store and network faults. The underlying error is
// logged, never sent to clients.
var ErrStoreUnavailable = errors.New("store unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStoreUnavailable).
	WithCode(errors.CodeInternal)

// IsTokenExpiredError checks for expired token errors.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeTokenExpired
	}
	return false
}

// IsMalformedError checks for malformed token errors.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeTokenMalformed
	}
	return false
}

// WrapStoreError maps unexpected store faults onto ErrStoreUnavailable while
// letting already categorized errors through untouched.
func WrapStoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich
	}
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode(TextCodeStoreUnavailable).
		WithCode(errors.CodeInternal)
}
