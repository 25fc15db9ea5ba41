package jwtware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyfuncOptionsRefreshErrorHandlerIsSafe(t *testing.T) {
	opts := keyfuncOptions(nil)
	require.NotNil(t, opts.RefreshErrorHandler)
	require.NotPanics(t, func() {
		opts.RefreshErrorHandler(errors.New("refresh failed"))
	})

	require.Equal(t, time.Hour, opts.RefreshInterval)
	require.Equal(t, 5*time.Minute, opts.RefreshRateLimit)
	require.Equal(t, 10*time.Second, opts.RefreshTimeout)
	require.True(t, opts.RefreshUnknownKID)
}

func TestGetExtractors(t *testing.T) {
	t.Run("parses a single header lookup", func(t *testing.T) {
		extractors := GetExtractors("header:Authorization")
		assert.Len(t, extractors, 1)
	})

	t.Run("parses multiple lookup sources", func(t *testing.T) {
		extractors := GetExtractors("header:Authorization,cookie:token,query:access_token")
		assert.Len(t, extractors, 3)
	})

	t.Run("empty lookup yields no extractors", func(t *testing.T) {
		assert.Empty(t, GetExtractors(""))
	})
}
