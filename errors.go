package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by structured errors so API clients can branch
// without parsing messages.
const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeEmailTaken        = "EMAIL_TAKEN"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
	TextCodeProtectedAccount  = "PROTECTED_ACCOUNT"
	TextCodeInsufficientRole  = "INSUFFICIENT_ROLE"
	TextCodeEventFull         = "EVENT_FULL"
	TextCodeAlreadyRegistered = "ALREADY_REGISTERED"
	TextCodeNotRegistered     = "NOT_REGISTERED"
	TextCodeInvalidRole       = "INVALID_ROLE"
)

// ErrInvalidCredentials is returned for every failed login, whether the
// email is unknown, the account is inactive, or the password does not
// verify. The paths are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a token's exp claim is in the past.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers every other unverifiable token: bad
// structure, bad signature, wrong signing method.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrMissingToken is returned when a protected route receives no
// bearer token at all.
var ErrMissingToken = goerrors.New("missing or malformed JWT", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInsufficientRole is returned when a verified identity lacks the
// role a route requires. Distinct from the authentication errors above:
// a valid token with the wrong role is 403, never 401.
var ErrInsufficientRole = goerrors.New("insufficient role for this resource", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole)

// ErrEmailTaken is returned when registering with an email that is
// already on file after normalization.
var ErrEmailTaken = goerrors.New("email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrUserNotFound is returned when a referenced account does not exist.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode("USER_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrEventNotFound is returned when a referenced event does not exist.
var ErrEventNotFound = goerrors.New("event not found", goerrors.CategoryNotFound).
	WithTextCode("EVENT_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrProtectedAccount guards the root administrator. Deleting it or
// changing its role fails with this error before any mutation happens,
// regardless of who is asking.
var ErrProtectedAccount = goerrors.New("cannot modify the protected root administrator", goerrors.CategoryConflict).
	WithTextCode(TextCodeProtectedAccount).
	WithCode(goerrors.CodeBadRequest)

// ErrEventFull is returned once an event's registered count has reached
// its capacity.
var ErrEventFull = goerrors.New("event is full", goerrors.CategoryConflict).
	WithTextCode(TextCodeEventFull).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyRegistered is returned when a (event, user) pair already
// has a registration row.
var ErrAlreadyRegistered = goerrors.New("already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRegistered).
	WithCode(goerrors.CodeBadRequest)

// ErrNotRegistered is returned when unregistering a pair that has no
// registration row.
var ErrNotRegistered = goerrors.New("not registered", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotRegistered).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch signal.
// Login translates it into ErrInvalidCredentials before it reaches a caller.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidRole is returned when a role change names an unknown role.
var ErrInvalidRole = goerrors.New("unknown role", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsProtectedAccountError reports whether err is the root-admin guard.
func IsProtectedAccountError(err error) bool {
	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.TextCode == TextCodeProtectedAccount
}
