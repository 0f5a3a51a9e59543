package authkit

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes attached to rich errors so HTTP layers can map them without
// string matching.
const (
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeRefreshInvalid   = "REFRESH_TOKEN_INVALID"
	TextCodeEmailTaken       = "EMAIL_TAKEN"
	TextCodeTokenCollision   = "REFRESH_TOKEN_COLLISION"
	TextCodeSigningKeyWeak   = "SIGNING_KEY_TOO_SHORT"
	TextCodeTooManyAttempts  = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodePermissionDenied = "PERMISSION_DENIED"
	TextCodePolicyNotDefined = "POLICY_NOT_DEFINED"
)

// ErrInvalidCredentials is returned for every Login failure a caller could
// use to enumerate accounts: unknown email, wrong password, inactive user.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshTokenInvalid covers every refresh rejection uniformly: unknown
// value, expired, already revoked, or rotated out from under a replay.
var ErrRefreshTokenInvalid = errors.New("the refresh token is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when an access token fails validation on expiry.
var ErrTokenExpired = errors.New("the access token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for any other access token validation failure.
var ErrTokenMalformed = errors.New("the access token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrEmailTaken is returned by Register when the email already exists,
// active or not.
var ErrEmailTaken = errors.New("the email address is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrTokenCollision is returned when a freshly generated refresh token value
// already exists. Callers regenerate and retry.
var ErrTokenCollision = errors.New("refresh token value collision", errors.CategoryConflict).
	WithTextCode(TextCodeTokenCollision).
	WithCode(errors.CodeConflict)

// ErrSigningKeyTooShort rejects signing keys below the minimum entropy length
// at construction time.
var ErrSigningKeyTooShort = errors.New("signing key must be at least 32 bytes", errors.CategoryValidation).
	WithTextCode(TextCodeSigningKeyWeak).
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned while the attempt cooldown is in effect.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrPermissionDenied is returned when a validated claim set lacks a
// permission the policy requires.
var ErrPermissionDenied = errors.New("permission denied", errors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied)

// ErrPolicyNotDefined is returned when an operation has no registered policy.
// Unmapped operations deny; "authenticated only" must be declared explicitly.
var ErrPolicyNotDefined = errors.New("no policy registered for operation", errors.CategoryValidation).
	WithTextCode(TextCodePolicyNotDefined).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
