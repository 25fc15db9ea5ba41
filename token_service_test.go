package revieweat_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	revieweat "github.com/revieweat/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity(id, username, email, role string) *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return(id).Maybe()
	identity.On("Username").Return(username).Maybe()
	identity.On("Email").Return(email).Maybe()
	identity.On("Role").Return(role).Maybe()
	return identity
}

func TestTokenService_Issue(t *testing.T) {
	cfg := newTestConfig()
	service := revieweat.NewTokenService(cfg, nil)

	t.Run("issues a signed token with claims", func(t *testing.T) {
		identity := testIdentity("42", "tester", "tester@example.com", "user")

		before := time.Now().UTC()
		token, expiresAt, err := service.Issue(identity, time.Hour)
		after := time.Now().UTC()

		require.NoError(t, err)
		assert.NotEmpty(t, token)

		assert.False(t, expiresAt.Before(before.Add(time.Hour)))
		assert.False(t, expiresAt.After(after.Add(time.Hour)))

		parsed, err := jwt.ParseWithClaims(token, &revieweat.JWTClaims{}, func(t *jwt.Token) (any, error) {
			return []byte(cfg.GetSigningKey()), nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)

		claims, ok := parsed.Claims.(*revieweat.JWTClaims)
		require.True(t, ok)
		assert.Equal(t, "tester@example.com", claims.Subject())
		assert.Equal(t, "42", claims.UserID())
		assert.Equal(t, "user", claims.Role())
		assert.Equal(t, cfg.GetIssuer(), claims.RegisteredClaims.Issuer)
		assert.NotEmpty(t, claims.RegisteredClaims.ID)
	})

	t.Run("rejects nil identity", func(t *testing.T) {
		_, _, err := service.Issue(nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("rejects non positive TTL", func(t *testing.T) {
		identity := testIdentity("42", "tester", "tester@example.com", "user")

		_, _, err := service.Issue(identity, 0)
		assert.Error(t, err)

		_, _, err = service.Issue(identity, -time.Minute)
		assert.Error(t, err)
	})

	t.Run("rejects identity without email", func(t *testing.T) {
		identity := testIdentity("42", "tester", "", "user")

		_, _, err := service.Issue(identity, time.Hour)
		assert.ErrorIs(t, err, revieweat.ErrMissingSubject)
	})
}

func TestTokenService_Validate(t *testing.T) {
	cfg := newTestConfig()
	service := revieweat.NewTokenService(cfg, nil)

	t.Run("round trips issued tokens", func(t *testing.T) {
		identity := testIdentity("7", "round", "round@example.com", "admin")

		token, expiresAt, err := service.Issue(identity, time.Hour)
		require.NoError(t, err)

		claims, err := service.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "round@example.com", claims.Subject())
		assert.Equal(t, "7", claims.UserID())
		assert.Equal(t, "admin", claims.Role())
		assert.WithinDuration(t, expiresAt, claims.Expires(), time.Second)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		claims := &revieweat.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.GetIssuer(),
				Subject:   "late@example.com",
				Audience:  jwt.ClaimStrings(cfg.GetAudience()),
				IssuedAt:  jwt.NewNumericDate(time.Now().UTC().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(-time.Hour)),
			},
		}

		token, err := service.SignClaims(claims)
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.True(t, revieweat.IsTokenExpiredError(err))
	})

	t.Run("rejects tokens exactly at expiry", func(t *testing.T) {
		now := time.Now().UTC()
		claims := &revieweat.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.GetIssuer(),
				Subject:   "edge@example.com",
				Audience:  jwt.ClaimStrings(cfg.GetAudience()),
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now),
			},
		}

		token, err := service.SignClaims(claims)
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.True(t, revieweat.IsTokenExpiredError(err))
	})

	t.Run("rejects tokens without expiry", func(t *testing.T) {
		claims := &revieweat.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:   cfg.GetIssuer(),
				Subject:  "open@example.com",
				Audience: jwt.ClaimStrings(cfg.GetAudience()),
				IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
			},
		}

		token, err := service.SignClaims(claims)
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.Error(t, err)
	})

	t.Run("rejects garbage tokens", func(t *testing.T) {
		_, err := service.Validate("not.a.jwt")
		assert.True(t, revieweat.IsMalformedError(err))
	})

	t.Run("rejects tokens signed with a different key", func(t *testing.T) {
		otherCfg := newTestConfig()
		otherCfg.signingKey = "another-signing-key"
		other := revieweat.NewTokenService(otherCfg, nil)

		identity := testIdentity("9", "other", "other@example.com", "user")
		token, _, err := other.Issue(identity, time.Hour)
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.True(t, revieweat.IsMalformedError(err))
	})

	t.Run("rejects tokens with empty subject", func(t *testing.T) {
		claims := &revieweat.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.GetIssuer(),
				Audience:  jwt.ClaimStrings(cfg.GetAudience()),
				IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
				ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Hour)),
			},
		}

		token, err := service.SignClaims(claims)
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.ErrorIs(t, err, revieweat.ErrMissingSubject)
	})
}

func TestTokenService_SigningConfiguration(t *testing.T) {
	t.Run("issue fails with empty signing key", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.signingKey = ""
		service := revieweat.NewTokenService(cfg, nil)

		identity := testIdentity("1", "nobody", "nobody@example.com", "user")
		_, _, err := service.Issue(identity, time.Hour)
		assert.ErrorIs(t, err, revieweat.ErrSigningConfiguration)
	})

	t.Run("issue fails with unsupported method", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.signingMethod = "RS256"
		service := revieweat.NewTokenService(cfg, nil)

		identity := testIdentity("1", "nobody", "nobody@example.com", "user")
		_, _, err := service.Issue(identity, time.Hour)
		assert.ErrorIs(t, err, revieweat.ErrSigningConfiguration)
	})

	t.Run("validate fails with empty signing key", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.signingKey = ""
		service := revieweat.NewTokenService(cfg, nil)

		_, err := service.Validate("whatever")
		assert.ErrorIs(t, err, revieweat.ErrSigningConfiguration)
	})
}
