package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/onhs/olms/internal/core/session"
)

const EnvProduction = "production"

// DevelopmentJWTSecret signs tokens when JWT_SECRET is unset outside
// production. Never accepted in production.
const DevelopmentJWTSecret = "olms-development-secret"

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// AuthTestBypass authenticates every request as the first active user.
	// Integration tests only; rejected in production.
	AuthTestBypass bool `env:"AUTH_TEST_BYPASS, default=false"`
	AuditWorkers   int  `env:"AUDIT_WORKERS,    default=4"`

	Session SessionConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	// JWTSecret falls back to DevelopmentJWTSecret outside production.
	JWTSecret               string        `env:"JWT_SECRET"`
	TokenLifetime           time.Duration `env:"JWT_EXPIRES_IN,                     default=24h"`
	MaxTimeoutDays          int           `env:"MAX_SESSION_TIMEOUT_DAYS,           default=30"`
	SlidingWindowSeconds    int           `env:"SESSION_SLIDING_WINDOW_SECONDS,     default=300"`
	MinRefreshWindowSeconds int           `env:"SESSION_MIN_REFRESH_WINDOW_SECONDS, default=60"`

	CookieName     string `env:"SESSION_COOKIE_NAME,     default=olms_session"`
	CookiePath     string `env:"SESSION_COOKIE_PATH,     default=/"`
	CookieDomain   string `env:"SESSION_COOKIE_DOMAIN"`
	CookieSameSite string `env:"SESSION_COOKIE_SAMESITE, default=lax"`
	// CookieSecure is nil when unset; the cookie is then secure only in production.
	CookieSecure   *bool  `env:"SESSION_COOKIE_SECURE, noinit"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=olms"`
}

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR,         default=localhost:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB,           default=0"`
	SettingsTTL time.Duration `env:"SETTINGS_CACHE_TTL, default=60s"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Session.JWTSecret == "" {
		cfg.Session.JWTSecret = DevelopmentJWTSecret
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && (c.Session.JWTSecret == "" || c.Session.JWTSecret == DevelopmentJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.AuthTestBypass && c.IsProduction() {
		errs = append(errs, errors.New("AUTH_TEST_BYPASS cannot be enabled in production"))
	}
	if c.Session.MaxTimeoutDays <= 0 {
		errs = append(errs, errors.New("MAX_SESSION_TIMEOUT_DAYS must be positive"))
	}
	if c.Session.TokenLifetime <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SessionPolicy returns the lifetime and refresh-window policy.
func (c *Config) SessionPolicy() session.Policy {
	return session.Policy{
		DefaultLifetime:  c.Session.TokenLifetime,
		MaxLifetime:      time.Duration(c.Session.MaxTimeoutDays) * 24 * time.Hour,
		SlidingWindow:    time.Duration(c.Session.SlidingWindowSeconds) * time.Second,
		MinRefreshWindow: time.Duration(c.Session.MinRefreshWindowSeconds) * time.Second,
	}
}

// CookiePolicy returns the session cookie attributes.
func (c *Config) CookiePolicy() session.CookiePolicy {
	secure := c.IsProduction()
	if c.Session.CookieSecure != nil {
		secure = *c.Session.CookieSecure
	}
	sameSite := session.ParseSameSite(c.Session.CookieSameSite)
	if sameSite == http.SameSiteNoneMode {
		// Browsers drop SameSite=None cookies that are not Secure.
		secure = true
	}
	return session.CookiePolicy{
		Name:     c.Session.CookieName,
		Path:     c.Session.CookiePath,
		Domain:   c.Session.CookieDomain,
		SameSite: sameSite,
		Secure:   secure,
	}
}
