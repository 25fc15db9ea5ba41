package revieweat

import (
	"context"
	"reflect"
	"time"

	"github.com/goliatone/go-errors"
)

// UserFinder resolves a token subject back to a stored user
type UserFinder interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

type Auther struct {
	provider     IdentityProvider
	users        UserFinder
	sessions     *SessionMirror
	cfg          Config
	logger       Logger
	tokenService TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, users UserFinder, opts Config) *Auther {
	return &Auther{
		provider:     provider,
		users:        users,
		cfg:          opts,
		logger:       defLogger{},
		tokenService: NewTokenService(opts, defLogger{}),
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(s.cfg, logger)
	return s
}

// WithSessionMirror wires the session mirror used on login and logout.
func (s *Auther) WithSessionMirror(sessions *SessionMirror) *Auther {
	s.sessions = sessions
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the identity and issues a token with the caller's TTL
// policy. The session mirror write is best effort; the token is returned
// even if the mirror could not be updated.
func (s *Auther) Login(ctx context.Context, identifier, password string, ttl time.Duration) (string, time.Time, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", time.Time{}, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", time.Time{}, ErrIdentityNotFound
	}

	token, expiresAt, err := s.tokenService.Issue(identity, ttl)
	if err != nil {
		s.logger.Error("Login token issue error", "error", err)
		return "", time.Time{}, err
	}

	if s.sessions != nil {
		// the recorded flags describe the cookie actually issued; without a
		// cookie name there is no cookie, so nothing to record
		flags := SessionFlags{}
		if s.cfg.GetCookieName() != "" {
			flags.HTTPOnly = s.cfg.GetCookieHTTPOnly()
			flags.Secure = s.cfg.GetCookieSecure()
		}
		s.sessions.Open(ctx, identity.Email(), token, expiresAt, flags)
	}

	return token, expiresAt, nil
}

// Logout clears the session mirror for the given email. The bearer token
// itself stays valid until its embedded expiry.
func (s *Auther) Logout(ctx context.Context, email string) error {
	if email == "" {
		return ErrIdentityNotFound
	}
	if s.sessions != nil {
		s.sessions.Close(ctx, email)
	}
	return nil
}

// Authenticate is the gate every protected request goes through: validate
// the token, resolve the subject to a stored user, and hand back the user.
// Any token or user problem collapses to the same rejection; only a storage
// outage during lookup is surfaced differently so clients can retry.
func (s *Auther) Authenticate(ctx context.Context, raw string) (*User, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Info("Authenticate token rejected", "error", err)
		return nil, s.uniformRejection(err)
	}

	return s.ResolveUser(ctx, claims)
}

// ResolveUser maps already validated claims to a stored user. Handlers
// behind the JWT middleware use it with the claims the middleware left on
// the request context; the rejection shapes match Authenticate.
func (s *Auther) ResolveUser(ctx context.Context, claims AuthClaims) (*User, error) {
	if claims == nil || claims.Subject() == "" {
		return nil, ErrAuthenticationFailed
	}

	user, err := s.users.GetByIdentifier(ctx, claims.Subject())
	if err != nil {
		if errors.IsNotFound(err) {
			// deleted or never existed: same rejection as a bad token
			return nil, ErrAuthenticationFailed
		}
		s.logger.Error("Authenticate user lookup failed", "error", err)
		return nil, wrapStorageError(err, "user lookup failed during authentication")
	}

	if user == nil {
		return nil, ErrAuthenticationFailed
	}

	return user, nil
}

// uniformRejection keeps internal configuration problems distinguishable
// while folding every credential failure into one external shape.
func (s *Auther) uniformRejection(err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryInternal {
		return err
	}
	return ErrAuthenticationFailed
}

var _ Authenticator = (*Auther)(nil)
