// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig   `envPrefix:"SERVER_"`
	Database      DatabaseConfig `envPrefix:"DB_"`
	Store         StoreConfig    `envPrefix:"STORE_"`
	Session       SessionConfig  `envPrefix:"SESSION_"`
	Observability ObservabilityConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig `envPrefix:"RATELIMIT_"`
	Workflow      WorkflowConfig  `envPrefix:"WORKFLOW_"`
	ImageGen      ImageGenConfig  `envPrefix:"IMAGEGEN_"`
	Bootstrap     BootstrapConfig `envPrefix:"BOOTSTRAP_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	Port           string        `env:"PORT" envDefault:"8080"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"75s"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"10485760"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds database configuration. URL, when set, wins over the
// individual fields.
type DatabaseConfig struct {
	URL             string        `env:"URL"`
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            string        `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"contenthub"`
	Password        string        `env:"PASSWORD"`
	Database        string        `env:"NAME" envDefault:"contenthub"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver   string `env:"DRIVER" envDefault:"postgres"`
	SeedFile string `env:"SEED_FILE"`
}

// SessionConfig holds session management configuration
type SessionConfig struct {
	CookieName     string        `env:"COOKIE_NAME" envDefault:"contenthub_session"`
	CookieDomain   string        `env:"COOKIE_DOMAIN"`
	CookiePath     string        `env:"COOKIE_PATH" envDefault:"/"`
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly bool          `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string        `env:"COOKIE_SAME_SITE" envDefault:"Lax"`
	Lifetime       time.Duration `env:"LIFETIME" envDefault:"24h"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"30m"`
	CleanupEvery   time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
}

// SameSite maps the configured name to its http constant
func (s SessionConfig) SameSite() http.SameSite {
	switch strings.ToLower(s.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string  `env:"LOG_FORMAT" envDefault:"json"`
	LogMaxValueLen int     `env:"LOG_MAX_VALUE_LEN" envDefault:"2048"`
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"contenthub"`
	ServiceVersion string  `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
	SamplingRate   float64 `env:"OTEL_SAMPLING_RATE" envDefault:"1.0"`
	MetricsEnabled bool    `env:"METRICS_ENABLED" envDefault:"true"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	Argon2Memory       uint32        `env:"ARGON2_MEMORY" envDefault:"65536"`
	Argon2Iterations   uint32        `env:"ARGON2_ITERATIONS" envDefault:"3"`
	Argon2Parallelism  uint8         `env:"ARGON2_PARALLELISM" envDefault:"4"`
	Argon2SaltLength   uint32        `env:"ARGON2_SALT_LENGTH" envDefault:"16"`
	Argon2KeyLength    uint32        `env:"ARGON2_KEY_LENGTH" envDefault:"32"`
	LockoutMaxAttempts int           `env:"SECURITY_LOCKOUT_MAX_ATTEMPTS" envDefault:"5"`
	LockoutDuration    time.Duration `env:"SECURITY_LOCKOUT_DURATION" envDefault:"15m"`
}

// RateLimitConfig holds rate limiting configuration. The login limiter is
// separate and much stricter.
type RateLimitConfig struct {
	RequestsPerSecond float64       `env:"RPS" envDefault:"10"`
	Burst             int           `env:"BURST" envDefault:"20"`
	LoginAttempts     int           `env:"LOGIN_ATTEMPTS" envDefault:"5"`
	LoginWindow       time.Duration `env:"LOGIN_WINDOW" envDefault:"15m"`
}

// WorkflowConfig holds the automation webhook endpoints
type WorkflowConfig struct {
	NewBriefURL   string        `env:"NEW_BRIEF_URL"`
	PublishURL    string        `env:"PUBLISH_URL"`
	ScheduleURL   string        `env:"SCHEDULE_URL"`
	SigningSecret string        `env:"SIGNING_SECRET"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// ImageGenConfig holds the image service endpoint
type ImageGenConfig struct {
	URL     string        `env:"URL"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// BootstrapConfig describes the operator account created on first start
type BootstrapConfig struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
	ClientID string `env:"CLIENT_ID"`
	Role     string `env:"ROLE" envDefault:"admin"`
}

// Load reads .env.local and .env when present, then environment variables
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD or DB_URL is required"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory))
	}

	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("SERVER_MAX_BODY_BYTES must be positive"))
	}

	if c.Workflow.PublishURL != "" || c.Workflow.ScheduleURL != "" || c.Workflow.NewBriefURL != "" {
		if c.Workflow.SigningSecret == "" {
			errs = append(errs, errors.New("WORKFLOW_SIGNING_SECRET is required when webhooks are configured"))
		}
	}
	for name, raw := range map[string]string{
		"WORKFLOW_NEW_BRIEF_URL": c.Workflow.NewBriefURL,
		"WORKFLOW_PUBLISH_URL":   c.Workflow.PublishURL,
		"WORKFLOW_SCHEDULE_URL":  c.Workflow.ScheduleURL,
		"IMAGEGEN_URL":           c.ImageGen.URL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL", name))
		}
	}

	if c.RateLimit.LoginAttempts <= 0 || c.RateLimit.LoginWindow <= 0 {
		errs = append(errs, errors.New("RATELIMIT_LOGIN_ATTEMPTS and RATELIMIT_LOGIN_WINDOW must be positive"))
	}

	return errors.Join(errs...)
}
