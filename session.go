package revieweat

import (
	"context"
	"time"
)

// SessionFlags are the cookie attributes recorded alongside a mirrored token.
type SessionFlags struct {
	HTTPOnly bool `json:"http_only"`
	Secure   bool `json:"secure"`
}

// SessionStatus describes the mirrored session on a user row.
type SessionStatus struct {
	Active    bool       `json:"active"`
	HTTPOnly  bool       `json:"http_only"`
	Secure    bool       `json:"secure"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SessionStore is the persistence surface the mirror writes through.
type SessionStore interface {
	OpenSession(ctx context.Context, email, token string, expiresAt time.Time, flags SessionFlags) error
	CloseSession(ctx context.Context, email string) error
	SweepExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// SessionMirror keeps the latest issued token mirrored on the user row.
// Every write is best effort: a mirror failure is logged and swallowed so
// it never fails the login or logout that triggered it.
type SessionMirror struct {
	store    SessionStore
	logger   Logger
	provider LoggerProvider
}

// NewSessionMirror will create a new SessionMirror
func NewSessionMirror(store SessionStore) *SessionMirror {
	provider, logger := ResolveLogger("auth.session", nil, nil)
	return &SessionMirror{
		store:    store,
		logger:   logger,
		provider: provider,
	}
}

func (s *SessionMirror) WithLogger(l Logger) *SessionMirror {
	s.provider, s.logger = ResolveLogger("auth.session", s.provider, l)
	return s
}

// Open records the freshly issued token on the user row
func (s *SessionMirror) Open(ctx context.Context, email, token string, expiresAt time.Time, flags SessionFlags) {
	if err := s.store.OpenSession(ctx, email, token, expiresAt, flags); err != nil {
		s.logger.Error("failed to mirror session open", "error", err, "email", email)
	}
}

// Close clears the mirrored token and expiry
func (s *SessionMirror) Close(ctx context.Context, email string) {
	if err := s.store.CloseSession(ctx, email); err != nil {
		s.logger.Error("failed to mirror session close", "error", err, "email", email)
	}
}

// Sweep clears every mirror whose expiry has passed and returns the number
// of rows touched. The predicate only matches already expired rows, so
// running it concurrently with logins is benign.
func (s *SessionMirror) Sweep(ctx context.Context) (int, error) {
	cleared, err := s.store.SweepExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		s.logger.Info("cleared expired session mirrors", "count", cleared)
	}
	return cleared, nil
}

// SessionStatusOf reports the mirrored session state at the given instant.
// A session whose expiry equals now is already inactive.
func SessionStatusOf(user *User, now time.Time) SessionStatus {
	if user == nil || user.SessionToken == nil || user.SessionExpiresAt == nil {
		return SessionStatus{}
	}
	if !now.Before(*user.SessionExpiresAt) {
		return SessionStatus{ExpiresAt: user.SessionExpiresAt}
	}
	return SessionStatus{
		Active:    true,
		HTTPOnly:  user.SessionHTTPOnly,
		Secure:    user.SessionSecure,
		ExpiresAt: user.SessionExpiresAt,
	}
}
