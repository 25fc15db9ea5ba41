package config

import (
	"fmt"
	"time"
)

// BaseConfig is the application configuration tree. It is loaded through
// the go-config container from app.json plus environment overrides.
type BaseConfig struct {
	App         App         `json:"app" yaml:"app"`
	Server      Server      `json:"server" yaml:"server"`
	Auth        Auth        `json:"auth" yaml:"auth"`
	Persistence Persistence `json:"persistence" yaml:"persistence"`
	Uploads     Uploads     `json:"uploads" yaml:"uploads"`
}

func (a *BaseConfig) Validate() error {
	if a.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	return nil
}

func (a *BaseConfig) GetApp() App                  { return a.App }
func (a *BaseConfig) GetServer() Server            { return a.Server }
func (a *BaseConfig) GetAuth() *Auth               { return &a.Auth }
func (a *BaseConfig) GetPersistence() *Persistence { return &a.Persistence }
func (a *BaseConfig) GetUploads() Uploads          { return a.Uploads }

type App struct {
	Name  string `json:"name" yaml:"name"`
	Env   string `json:"env" yaml:"env"`
	Debug bool   `json:"debug" yaml:"debug"`
}

func (a App) GetName() string { return a.Name }
func (a App) GetEnv() string  { return a.Env }
func (a App) GetDebug() bool  { return a.Debug }

type Server struct {
	Addr string `json:"addr" yaml:"addr"`
}

func (s Server) GetAddr() string {
	if s.Addr == "" {
		return ":8080"
	}
	return s.Addr
}

// Auth satisfies the auth package Config interface.
type Auth struct {
	SigningKey            string   `json:"signing_key" yaml:"signing_key"`
	SigningMethod         string   `json:"signing_method" yaml:"signing_method"`
	ContextKey            string   `json:"context_key" yaml:"context_key"`
	TokenTTLExpression    string   `json:"token_ttl" yaml:"token_ttl"`
	ExtendedTTLExpression string   `json:"extended_token_ttl" yaml:"extended_token_ttl"`
	TokenLookup           string   `json:"token_lookup" yaml:"token_lookup"`
	AuthScheme            string   `json:"auth_scheme" yaml:"auth_scheme"`
	Issuer                string   `json:"issuer" yaml:"issuer"`
	Audience              []string `json:"audience" yaml:"audience"`
	CookieName            string   `json:"cookie_name" yaml:"cookie_name"`
	CookieHTTPOnly        bool     `json:"cookie_http_only" yaml:"cookie_http_only"`
	CookieSecure          bool     `json:"cookie_secure" yaml:"cookie_secure"`
	SweepIntervalExpr     string   `json:"sweep_interval" yaml:"sweep_interval"`
}

func (a *Auth) GetSigningKey() string { return a.SigningKey }

func (a *Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a *Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "user"
	}
	return a.ContextKey
}

// GetTokenTTL is the default session length.
func (a *Auth) GetTokenTTL() time.Duration {
	return parseDurationOr(a.TokenTTLExpression, 7*24*time.Hour)
}

// GetExtendedTokenTTL is the remember-me session length.
func (a *Auth) GetExtendedTokenTTL() time.Duration {
	return parseDurationOr(a.ExtendedTTLExpression, 30*24*time.Hour)
}

func (a *Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a *Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a *Auth) GetIssuer() string     { return a.Issuer }
func (a *Auth) GetAudience() []string { return a.Audience }

func (a *Auth) GetCookieName() string   { return a.CookieName }
func (a *Auth) GetCookieHTTPOnly() bool { return a.CookieHTTPOnly }
func (a *Auth) GetCookieSecure() bool   { return a.CookieSecure }

// GetSweepInterval is the period of the background session sweep.
func (a *Auth) GetSweepInterval() time.Duration {
	return parseDurationOr(a.SweepIntervalExpr, time.Hour)
}

type Persistence struct {
	Driver                string `json:"driver" yaml:"driver"`
	DSN                   string `json:"dsn" yaml:"dsn"`
	Debug                 bool   `json:"debug" yaml:"debug"`
	Seed                  bool   `json:"seed" yaml:"seed"`
	PingTimeoutExpression string `json:"ping_timeout" yaml:"ping_timeout"`
}

func (p *Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p *Persistence) GetDSN() string {
	if p.DSN == "" {
		return "file::memory:?cache=shared"
	}
	return p.DSN
}

func (p *Persistence) GetDebug() bool { return p.Debug }
func (p *Persistence) GetSeed() bool  { return p.Seed }

func (p *Persistence) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

type Uploads struct {
	Dir string `json:"dir" yaml:"dir"`
}

func (u Uploads) GetDir() string {
	if u.Dir == "" {
		return "uploads"
	}
	return u.Dir
}

func parseDurationOr(expr string, def time.Duration) time.Duration {
	if expr == "" {
		return def
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		return def
	}
	return dur
}
