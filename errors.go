package revieweat

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodeCredentialsMismatch = "CREDENTIALS_MISMATCH"
	TextCodeTooManyAttempts     = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeMissingSubject      = "TOKEN_MISSING_SUBJECT"
	TextCodeSigningConfig       = "SIGNING_CONFIGURATION"
	TextCodeStorageUnavailable  = "STORAGE_UNAVAILABLE"
	TextCodeAuthFailed          = "AUTHENTICATION_FAILED"
	TextCodeDuplicateIdentity   = "DUPLICATE_IDENTITY"
	TextCodeOwnershipMismatch   = "OWNERSHIP_MISMATCH"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when a password check fails,
// regardless of which part of the comparison failed.
var ErrMismatchedHashAndPassword = errors.New("credentials do not match", errors.CategoryAuth).
	WithTextCode(TextCodeCredentialsMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value cannot be an empty string", errors.CategoryBadInput).
	WithTextCode("EMPTY_STRING").
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts throttles the credential path after repeated failures.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrTokenExpired is returned when a token's expiry instant has passed,
// including the expiry instant itself.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers undecodable tokens and bad signatures alike.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMissingSubject is returned when decoded claims carry no subject.
var ErrMissingSubject = errors.New("token has no subject", errors.CategoryAuth).
	WithTextCode(TextCodeMissingSubject).
	WithCode(errors.CodeUnauthorized)

// ErrSigningConfiguration is returned when the signing key or method is
// unset. The message never names which value is missing.
var ErrSigningConfiguration = errors.New("token service is misconfigured", errors.CategoryInternal).
	WithTextCode(TextCodeSigningConfig).
	WithCode(errors.CodeInternal)

// ErrStorageUnavailable marks a storage outage on the auth path so callers
// can tell a retryable condition from rejected credentials.
var ErrStorageUnavailable = errors.New("storage unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeStorageUnavailable).
	WithCode(errors.CodeInternal)

// ErrAuthenticationFailed is the uniform rejection for any credential or
// token problem on the gate.
var ErrAuthenticationFailed = errors.New("authentication failed", errors.CategoryAuth).
	WithTextCode(TextCodeAuthFailed).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateIdentity is returned when registration hits a unique constraint.
var ErrDuplicateIdentity = errors.New("identity already exists", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(errors.CodeConflict)

// ErrOwnershipMismatch is returned when a record exists but belongs to a
// different user.
var ErrOwnershipMismatch = errors.New("record owned by another user", errors.CategoryAuthz).
	WithTextCode(TextCodeOwnershipMismatch).
	WithCode(errors.CodeForbidden)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsStorageUnavailable reports whether err marks a storage outage rather
// than a rejected credential.
func IsStorageUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	return errors.As(err, &richErr) && richErr.TextCode == TextCodeStorageUnavailable
}

// wrapStorageError tags a repository failure as a retryable outage while
// keeping the driver error in the chain.
func wrapStorageError(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryOperation, msg).
		WithTextCode(TextCodeStorageUnavailable).
		WithCode(errors.CodeInternal)
}
