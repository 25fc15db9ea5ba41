package revieweat_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	revieweat "github.com/revieweat/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAutherLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token and mirrors the session", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.cookieName = "auth_token"
		cfg.cookieHTTPOnly = true

		identity := testIdentity("42", "tester", "tester@example.com", "user")

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "tester@example.com", "secret").Return(identity, nil)

		store := &MockSessionStore{}
		store.On("OpenSession", ctx, "tester@example.com", mock.AnythingOfType("string"),
			mock.AnythingOfType("time.Time"),
			revieweat.SessionFlags{HTTPOnly: true}).Return(nil)

		auther := revieweat.NewAuthenticator(provider, &MockUserFinder{}, cfg).
			WithSessionMirror(revieweat.NewSessionMirror(store))

		token, expiresAt, err := auther.Login(ctx, "tester@example.com", "secret", time.Hour)

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, expiresAt.After(time.Now().UTC()))

		provider.AssertExpectations(t)
		store.AssertExpectations(t)
	})

	t.Run("records no cookie flags when cookie mode is off", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.cookieHTTPOnly = true
		cfg.cookieSecure = true

		identity := testIdentity("42", "tester", "tester@example.com", "user")

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "tester@example.com", "secret").Return(identity, nil)

		store := &MockSessionStore{}
		store.On("OpenSession", ctx, "tester@example.com", mock.AnythingOfType("string"),
			mock.AnythingOfType("time.Time"),
			revieweat.SessionFlags{}).Return(nil)

		auther := revieweat.NewAuthenticator(provider, &MockUserFinder{}, cfg).
			WithSessionMirror(revieweat.NewSessionMirror(store))

		_, _, err := auther.Login(ctx, "tester@example.com", "secret", time.Hour)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("returns the token even when the mirror write fails", func(t *testing.T) {
		cfg := newTestConfig()

		identity := testIdentity("42", "tester", "tester@example.com", "user")

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "tester@example.com", "secret").Return(identity, nil)

		store := &MockSessionStore{}
		store.On("OpenSession", ctx, "tester@example.com", mock.AnythingOfType("string"),
			mock.AnythingOfType("time.Time"),
			revieweat.SessionFlags{}).Return(revieweat.ErrStorageUnavailable)

		logger := &captureLogger{}
		auther := revieweat.NewAuthenticator(provider, &MockUserFinder{}, cfg).
			WithSessionMirror(revieweat.NewSessionMirror(store).WithLogger(logger))

		token, _, err := auther.Login(ctx, "tester@example.com", "secret", time.Hour)

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, logger.errors)

		store.AssertExpectations(t)
	})

	t.Run("propagates credential rejections", func(t *testing.T) {
		cfg := newTestConfig()

		provider := &MockIdentityProvider{}
		provider.On("VerifyIdentity", ctx, "tester@example.com", "wrong").
			Return(nil, revieweat.ErrMismatchedHashAndPassword)

		auther := revieweat.NewAuthenticator(provider, &MockUserFinder{}, cfg)

		_, _, err := auther.Login(ctx, "tester@example.com", "wrong", time.Hour)
		assert.ErrorIs(t, err, revieweat.ErrMismatchedHashAndPassword)
	})
}

func TestAutherLogout(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()

	t.Run("closes the mirrored session", func(t *testing.T) {
		store := &MockSessionStore{}
		store.On("CloseSession", ctx, "tester@example.com").Return(nil)

		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, &MockUserFinder{}, cfg).
			WithSessionMirror(revieweat.NewSessionMirror(store))

		assert.NoError(t, auther.Logout(ctx, "tester@example.com"))
		store.AssertExpectations(t)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, &MockUserFinder{}, cfg)

		err := auther.Logout(ctx, "")
		assert.ErrorIs(t, err, revieweat.ErrIdentityNotFound)
	})

	t.Run("swallows mirror close failures", func(t *testing.T) {
		store := &MockSessionStore{}
		store.On("CloseSession", ctx, "tester@example.com").Return(revieweat.ErrStorageUnavailable)

		logger := &captureLogger{}
		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, &MockUserFinder{}, cfg).
			WithSessionMirror(revieweat.NewSessionMirror(store).WithLogger(logger))

		assert.NoError(t, auther.Logout(ctx, "tester@example.com"))
		assert.NotEmpty(t, logger.errors)
	})
}

func TestAutherAuthenticate(t *testing.T) {
	ctx := context.Background()
	cfg := newTestConfig()

	issueToken := func(t *testing.T, email string) string {
		t.Helper()
		service := revieweat.NewTokenService(cfg, nil)
		identity := testIdentity("42", "tester", email, "user")
		token, _, err := service.Issue(identity, time.Hour)
		require.NoError(t, err)
		return token
	}

	t.Run("resolves the token subject to a stored user", func(t *testing.T) {
		token := issueToken(t, "tester@example.com")

		users := &MockUserFinder{}
		users.On("GetByIdentifier", ctx, "tester@example.com").
			Return(&revieweat.User{ID: 42, Email: "tester@example.com", Role: revieweat.RoleUser}, nil)

		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, users, cfg)

		user, err := auther.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.ID)

		users.AssertExpectations(t)
	})

	t.Run("rejects deleted users like bad tokens", func(t *testing.T) {
		token := issueToken(t, "gone@example.com")

		users := &MockUserFinder{}
		users.On("GetByIdentifier", ctx, "gone@example.com").
			Return(nil, errors.New("user not found", errors.CategoryNotFound).WithCode(errors.CodeNotFound))

		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, users, cfg)

		_, err := auther.Authenticate(ctx, token)
		assert.ErrorIs(t, err, revieweat.ErrAuthenticationFailed)
	})

	t.Run("surfaces storage outages during lookup", func(t *testing.T) {
		token := issueToken(t, "tester@example.com")

		users := &MockUserFinder{}
		users.On("GetByIdentifier", ctx, "tester@example.com").
			Return(nil, revieweat.ErrStorageUnavailable)

		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, users, cfg)

		_, err := auther.Authenticate(ctx, token)
		assert.Error(t, err)
		assert.True(t, revieweat.IsStorageUnavailable(err))
		assert.NotErrorIs(t, err, revieweat.ErrAuthenticationFailed)
	})

	t.Run("collapses token failures into one rejection", func(t *testing.T) {
		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, &MockUserFinder{}, cfg)

		_, err := auther.Authenticate(ctx, "not.a.jwt")
		assert.ErrorIs(t, err, revieweat.ErrAuthenticationFailed)
	})

	t.Run("keeps configuration problems distinguishable", func(t *testing.T) {
		badCfg := newTestConfig()
		badCfg.signingKey = ""

		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, &MockUserFinder{}, badCfg)

		_, err := auther.Authenticate(ctx, "whatever")
		assert.ErrorIs(t, err, revieweat.ErrSigningConfiguration)
		assert.NotErrorIs(t, err, revieweat.ErrAuthenticationFailed)
	})

	t.Run("resolves middleware validated claims without reparsing", func(t *testing.T) {
		claims := &revieweat.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "tester@example.com"},
			UID:              "42",
			UserRole:         revieweat.RoleUser,
		}

		users := &MockUserFinder{}
		users.On("GetByIdentifier", ctx, "tester@example.com").
			Return(&revieweat.User{ID: 42, Email: "tester@example.com", Role: revieweat.RoleUser}, nil)

		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, users, cfg)

		user, err := auther.ResolveUser(ctx, claims)
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.ID)

		users.AssertExpectations(t)
	})

	t.Run("rejects claims without a subject", func(t *testing.T) {
		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, &MockUserFinder{}, cfg)

		_, err := auther.ResolveUser(ctx, &revieweat.JWTClaims{})
		assert.ErrorIs(t, err, revieweat.ErrAuthenticationFailed)

		_, err = auther.ResolveUser(ctx, nil)
		assert.ErrorIs(t, err, revieweat.ErrAuthenticationFailed)
	})

	t.Run("a logged out user's token stays valid until expiry", func(t *testing.T) {
		token := issueToken(t, "tester@example.com")

		store := &MockSessionStore{}
		store.On("CloseSession", ctx, "tester@example.com").Return(nil)

		users := &MockUserFinder{}
		users.On("GetByIdentifier", ctx, "tester@example.com").
			Return(&revieweat.User{ID: 42, Email: "tester@example.com", Role: revieweat.RoleUser}, nil)

		auther := revieweat.NewAuthenticator(&MockIdentityProvider{}, users, cfg).
			WithSessionMirror(revieweat.NewSessionMirror(store))

		require.NoError(t, auther.Logout(ctx, "tester@example.com"))

		user, err := auther.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.ID)
	})
}
