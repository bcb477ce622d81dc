package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidCredentials       = "INVALID_CREDENTIALS"
	textCodeAccountLocked            = "ACCOUNT_LOCKED"
	textCodeAccountDisabled          = "ACCOUNT_DISABLED"
	textCodeTokenExpired             = "TOKEN_EXPIRED"
	textCodeTokenMalformed           = "TOKEN_MALFORMED"
	textCodeTokenSignature           = "TOKEN_SIGNATURE_INVALID"
	textCodeTokenUnsupported         = "TOKEN_UNSUPPORTED"
	textCodeDuplicateUsername        = "DUPLICATE_USERNAME"
	textCodeDuplicateEmail           = "DUPLICATE_EMAIL"
	textCodeDuplicateEmployeeID      = "DUPLICATE_EMPLOYEE_ID"
	textCodePasswordMismatch         = "PASSWORD_MISMATCH"
	textCodeCurrentPasswordIncorrect = "CURRENT_PASSWORD_INCORRECT"
	textCodeUserNotFound             = "USER_NOT_FOUND"
)

// ErrInvalidCredentials conflates unknown username and wrong password so
// callers cannot probe which accounts exist.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned while a lockout window is active.
var ErrAccountLocked = goerrors.New("account is locked", goerrors.CategoryAuth).
	WithTextCode(textCodeAccountLocked).
	WithCode(goerrors.CodeForbidden)

// ErrAccountDisabled is returned for INACTIVE, SUSPENDED, and RESIGNED accounts.
var ErrAccountDisabled = goerrors.New("account is disabled", goerrors.CategoryAuth).
	WithTextCode(textCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned when the token's expiration claim is in the past.
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that cannot be parsed at all.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenSignature is returned when the signature does not verify against
// the configured key.
var ErrTokenSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenUnsupported is returned for structurally valid tokens of an
// unrecognized variant, e.g. a foreign signing algorithm.
var ErrTokenUnsupported = goerrors.New("token is unsupported", goerrors.CategoryAuth).
	WithTextCode(textCodeTokenUnsupported).
	WithCode(goerrors.CodeUnauthorized)

// ErrDuplicateUsername is returned when registering an already taken username.
var ErrDuplicateUsername = goerrors.New("username already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateUsername).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateEmail is returned when registering an already taken email.
var ErrDuplicateEmail = goerrors.New("email already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateEmployeeID is returned when registering an already taken employee ID.
var ErrDuplicateEmployeeID = goerrors.New("employee ID already exists", goerrors.CategoryConflict).
	WithTextCode(textCodeDuplicateEmployeeID).
	WithCode(goerrors.CodeConflict)

// ErrPasswordMismatch is returned when a password change confirmation does
// not match the new password.
var ErrPasswordMismatch = goerrors.New("password confirmation mismatch", goerrors.CategoryValidation).
	WithTextCode(textCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrCurrentPasswordIncorrect is returned when a password change supplies the
// wrong current password.
var ErrCurrentPasswordIncorrect = goerrors.New("current password is incorrect", goerrors.CategoryValidation).
	WithTextCode(textCodeCurrentPasswordIncorrect).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotFound is returned for non-login lookups and updates by id or
// username. Login itself answers ErrInvalidCredentials instead.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// IsTokenExpiredError checks for expired tokens.
func IsTokenExpiredError(err error) bool {
	return goerrors.Is(err, ErrTokenExpired)
}

// IsTokenInvalidError checks for any non-expired token failure: malformed,
// bad signature, or an unsupported variant. Callers that only care about the
// expired/invalid split branch on this and IsTokenExpiredError.
func IsTokenInvalidError(err error) bool {
	return goerrors.Is(err, ErrTokenMalformed) ||
		goerrors.Is(err, ErrTokenSignature) ||
		goerrors.Is(err, ErrTokenUnsupported)
}

// IsDuplicateError checks for any of the registration uniqueness failures.
func IsDuplicateError(err error) bool {
	return goerrors.Is(err, ErrDuplicateUsername) ||
		goerrors.Is(err, ErrDuplicateEmail) ||
		goerrors.Is(err, ErrDuplicateEmployeeID)
}
