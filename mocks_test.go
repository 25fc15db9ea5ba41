package revieweat_test

import (
	"context"
	"sync"
	"time"

	revieweat "github.com/revieweat/server"
	"github.com/stretchr/testify/mock"
)

// MockIdentity implements revieweat.Identity
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockIdentityProvider implements revieweat.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (revieweat.Identity, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(revieweat.Identity), args.Error(1)
}

// MockUserFinder implements revieweat.UserFinder
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) GetByIdentifier(ctx context.Context, identifier string) (*revieweat.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*revieweat.User), args.Error(1)
}

// MockUserTracker implements revieweat.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*revieweat.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*revieweat.User), args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *revieweat.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSucccessfulLogin(ctx context.Context, user *revieweat.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockSessionStore implements revieweat.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) OpenSession(ctx context.Context, email, token string, expiresAt time.Time, flags revieweat.SessionFlags) error {
	args := m.Called(ctx, email, token, expiresAt, flags)
	return args.Error(0)
}

func (m *MockSessionStore) CloseSession(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockSessionStore) SweepExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// captureLogger records log calls so tests can assert on swallowed errors
type captureLogger struct {
	mu     sync.Mutex
	errors []string
	infos  []string
	debugs []string
	warns  []string
}

func (l *captureLogger) Debug(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugs = append(l.debugs, format)
}

func (l *captureLogger) Info(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, format)
}

func (l *captureLogger) Warn(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, format)
}

func (l *captureLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, format)
}

// testConfig implements revieweat.Config with plain fields
type testConfig struct {
	signingKey     string
	signingMethod  string
	contextKey     string
	tokenTTL       time.Duration
	extendedTTL    time.Duration
	tokenLookup    string
	authScheme     string
	issuer         string
	audience       []string
	cookieName     string
	cookieHTTPOnly bool
	cookieSecure   bool
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:    "test-signing-key",
		signingMethod: "HS256",
		contextKey:    "user",
		tokenTTL:      7 * 24 * time.Hour,
		extendedTTL:   30 * 24 * time.Hour,
		tokenLookup:   "header:Authorization",
		authScheme:    "Bearer",
		issuer:        "test-issuer",
		audience:      []string{"test-audience"},
	}
}

func (c *testConfig) GetSigningKey() string              { return c.signingKey }
func (c *testConfig) GetSigningMethod() string           { return c.signingMethod }
func (c *testConfig) GetContextKey() string              { return c.contextKey }
func (c *testConfig) GetTokenTTL() time.Duration         { return c.tokenTTL }
func (c *testConfig) GetExtendedTokenTTL() time.Duration { return c.extendedTTL }
func (c *testConfig) GetTokenLookup() string             { return c.tokenLookup }
func (c *testConfig) GetAuthScheme() string              { return c.authScheme }
func (c *testConfig) GetIssuer() string                  { return c.issuer }
func (c *testConfig) GetAudience() []string              { return c.audience }
func (c *testConfig) GetCookieName() string              { return c.cookieName }
func (c *testConfig) GetCookieHTTPOnly() bool            { return c.cookieHTTPOnly }
func (c *testConfig) GetCookieSecure() bool              { return c.cookieSecure }
