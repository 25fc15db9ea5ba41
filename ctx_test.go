package revieweat_test

import (
	"context"
	"testing"

	revieweat "github.com/revieweat/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimsContext(t *testing.T) {
	claims := &revieweat.JWTClaims{UID: "42", UserRole: "user"}

	ctx := revieweat.WithClaimsContext(context.Background(), claims)

	got, ok := revieweat.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "42", got.UserID())
}

func TestClaimsContextMissing(t *testing.T) {
	_, ok := revieweat.GetClaims(context.Background())
	assert.False(t, ok)
}
