package revieweat_test

import (
	"fmt"
	"testing"

	"github.com/goliatone/go-errors"
	revieweat "github.com/revieweat/server"
	"github.com/stretchr/testify/assert"
)

func TestStructuredErrorProperties(t *testing.T) {
	tests := []struct {
		name     string
		err      *errors.Error
		category errors.Category
		textCode string
	}{
		{
			name:     "identity not found",
			err:      revieweat.ErrIdentityNotFound,
			category: errors.CategoryAuth,
			textCode: revieweat.TextCodeIdentityNotFound,
		},
		{
			name:     "credentials mismatch",
			err:      revieweat.ErrMismatchedHashAndPassword,
			category: errors.CategoryAuth,
			textCode: revieweat.TextCodeCredentialsMismatch,
		},
		{
			name:     "too many attempts",
			err:      revieweat.ErrTooManyLoginAttempts,
			category: errors.CategoryRateLimit,
			textCode: revieweat.TextCodeTooManyAttempts,
		},
		{
			name:     "token expired",
			err:      revieweat.ErrTokenExpired,
			category: errors.CategoryAuth,
			textCode: revieweat.TextCodeTokenExpired,
		},
		{
			name:     "token malformed",
			err:      revieweat.ErrTokenMalformed,
			category: errors.CategoryAuth,
			textCode: revieweat.TextCodeTokenMalformed,
		},
		{
			name:     "missing subject",
			err:      revieweat.ErrMissingSubject,
			category: errors.CategoryAuth,
			textCode: revieweat.TextCodeMissingSubject,
		},
		{
			name:     "signing configuration",
			err:      revieweat.ErrSigningConfiguration,
			category: errors.CategoryInternal,
			textCode: revieweat.TextCodeSigningConfig,
		},
		{
			name:     "storage unavailable",
			err:      revieweat.ErrStorageUnavailable,
			category: errors.CategoryOperation,
			textCode: revieweat.TextCodeStorageUnavailable,
		},
		{
			name:     "authentication failed",
			err:      revieweat.ErrAuthenticationFailed,
			category: errors.CategoryAuth,
			textCode: revieweat.TextCodeAuthFailed,
		},
		{
			name:     "duplicate identity",
			err:      revieweat.ErrDuplicateIdentity,
			category: errors.CategoryConflict,
			textCode: revieweat.TextCodeDuplicateIdentity,
		},
		{
			name:     "ownership mismatch",
			err:      revieweat.ErrOwnershipMismatch,
			category: errors.CategoryAuthz,
			textCode: revieweat.TextCodeOwnershipMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.False(t, revieweat.IsTokenExpiredError(nil))
	assert.True(t, revieweat.IsTokenExpiredError(revieweat.ErrTokenExpired))
	assert.True(t, revieweat.IsTokenExpiredError(fmt.Errorf("token is expired")))
	assert.False(t, revieweat.IsTokenExpiredError(revieweat.ErrTokenMalformed))
}

func TestIsMalformedError(t *testing.T) {
	assert.False(t, revieweat.IsMalformedError(nil))
	assert.True(t, revieweat.IsMalformedError(revieweat.ErrTokenMalformed))
	assert.True(t, revieweat.IsMalformedError(fmt.Errorf("missing or malformed JWT")))
	assert.False(t, revieweat.IsMalformedError(revieweat.ErrTokenExpired))
}

func TestIsStorageUnavailable(t *testing.T) {
	assert.False(t, revieweat.IsStorageUnavailable(nil))
	assert.True(t, revieweat.IsStorageUnavailable(revieweat.ErrStorageUnavailable))
	assert.False(t, revieweat.IsStorageUnavailable(revieweat.ErrAuthenticationFailed))
	assert.False(t, revieweat.IsStorageUnavailable(fmt.Errorf("plain failure")))
}
