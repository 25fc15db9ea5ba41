package revieweat

import (
	"context"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/revieweat/server/middleware/jwtware"
)

// HTTPAuthenticator is the surface controllers use to drive the auth flow.
type HTTPAuthenticator interface {
	Login(ctx router.Context, payload LoginPayload) (string, time.Time, error)
	Logout(ctx router.Context, email string) error
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	tokens       TokenService
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther *Auther, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		tokens: auther.TokenService(),
		Logger: defLogger{},
	}

	a.ErrorHandler = a.WriteError

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	a.Logger = logger
	return a
}

// ProtectedRoute validates the bearer token on every request; any failure
// goes through the error handler with the uniform challenge. On success the
// validated claims are propagated to the request context so handlers can
// read them back with GetClaims.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		TokenValidator: tokenValidatorAdapter{a.tokens},
		ContextEnricher: func(ctx context.Context, claims jwtware.AuthClaims) context.Context {
			if ac, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(ctx, ac)
			}
			return ctx
		},
	})
}

// Login issues a token with the default or extended TTL and, when a cookie
// name is configured, mirrors it into an http-only cookie.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, time.Time, error) {
	ttl := a.cfg.GetTokenTTL()
	if payload.GetExtendedSession() {
		ttl = a.cfg.GetExtendedTokenTTL()
	}

	token, expiresAt, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword(), ttl)
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return "", time.Time{}, err
	}

	if name := a.cfg.GetCookieName(); name != "" {
		a.setCookieToken(ctx, name, token, expiresAt)
	}

	return token, expiresAt, nil
}

// Logout clears the session mirror and the cookie. The bearer token stays
// valid until its embedded expiry.
func (a *RouteAuthenticator) Logout(ctx router.Context, email string) error {
	if err := a.auth.Logout(ctx.Context(), email); err != nil {
		return err
	}

	if name := a.cfg.GetCookieName(); name != "" {
		a.cookieDel(ctx, name)
	}

	return nil
}

// MakeClientRouteAuthErrorHandler folds every token failure into the one
// external rejection shape.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

// WriteError is the single place internal errors become HTTP responses.
func (a *RouteAuthenticator) WriteError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	if richErr.TextCode == TextCodeStorageUnavailable {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"error": "service temporarily unavailable",
		})
	}

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		if richErr.Category == errors.CategoryAuthz {
			return c.JSON(router.StatusForbidden, map[string]any{
				"error": richErr.Message,
			})
		}
		c.SetHeader("WWW-Authenticate", a.cfg.GetAuthScheme())
		return c.JSON(router.StatusUnauthorized, map[string]any{
			"error": "authentication failed",
		})
	case errors.CategoryRateLimit:
		return c.JSON(http.StatusTooManyRequests, map[string]any{
			"error": richErr.Message,
		})
	case errors.CategoryNotFound:
		return c.JSON(http.StatusNotFound, map[string]any{
			"error": richErr.Message,
		})
	case errors.CategoryConflict:
		return c.JSON(http.StatusConflict, map[string]any{
			"error": richErr.Message,
		})
	case errors.CategoryValidation, errors.CategoryBadInput:
		body := map[string]any{
			"error": richErr.Message,
		}
		if len(richErr.Metadata) > 0 {
			body["fields"] = richErr.Metadata
		}
		return c.JSON(router.StatusBadRequest, body)
	default:
		// internal details never leak
		return c.JSON(router.StatusInternalServerError, map[string]any{
			"error": "internal server error",
		})
	}
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, name, val string, expiresAt time.Time) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  expiresAt,
		HTTPOnly: a.cfg.GetCookieHTTPOnly(),
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: a.cfg.GetCookieHTTPOnly(),
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: "Lax",
	})
}

// tokenValidatorAdapter bridges the package token service to the
// middleware's validator seam.
type tokenValidatorAdapter struct {
	tokens TokenService
}

func (t tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := t.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)
