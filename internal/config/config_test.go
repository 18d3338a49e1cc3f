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
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates defaults and environment overrides.
// Scope: Unit Test
// Security: Secure-by-default configuration
// Expected: Defaults match documented values; nested prefixes map to their sections.
// Test Case ID: CFG-01
func TestConfig_Load(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WORKFLOW_PUBLISH_URL", "https://n8n.example.com/webhook/publish")
	t.Setenv("WORKFLOW_SIGNING_SECRET", "s3cret")
	t.Setenv("RATELIMIT_LOGIN_ATTEMPTS", "3")
	t.Setenv("SESSION_COOKIE_SAME_SITE", "Strict")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, int64(10<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "contenthub_session", cfg.Session.CookieName)
	assert.True(t, cfg.Session.CookieHTTPOnly)
	assert.Equal(t, http.SameSiteStrictMode, cfg.Session.SameSite())
	assert.Equal(t, 24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, uint32(65536), cfg.Security.Argon2Memory)
	assert.Equal(t, 5, cfg.Security.LockoutMaxAttempts)
	assert.Equal(t, 3, cfg.RateLimit.LoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, 30*time.Second, cfg.Workflow.Timeout)
	assert.Equal(t, "https://n8n.example.com/webhook/publish", cfg.Workflow.PublishURL)
}

// TestPurpose: Validates that unsafe or incomplete configurations are refused.
// Scope: Unit Test
// Security: Configuration validation
// Expected: Missing database credentials, unsigned webhooks, bad URLs and unknown drivers fail validation.
// Test Case ID: CFG-02
func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{MaxBodyBytes: 1024},
			Store:     StoreConfig{Driver: StoreDriverPostgres},
			Database:  DatabaseConfig{Password: "pw"},
			RateLimit: RateLimitConfig{LoginAttempts: 5, LoginWindow: time.Minute},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no db password", func(c *Config) { c.Database.Password = "" }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"unsigned webhook", func(c *Config) { c.Workflow.PublishURL = "https://n8n.example.com/p" }},
		{"relative webhook", func(c *Config) {
			c.Workflow.ScheduleURL = "/webhook/schedule"
			c.Workflow.SigningSecret = "x"
		}},
		{"bad imagegen url", func(c *Config) { c.ImageGen.URL = "ftp://images" }},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
		{"zero login window", func(c *Config) { c.RateLimit.LoginWindow = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	dbURL := valid()
	dbURL.Database.Password = ""
	dbURL.Database.URL = "postgres://u:p@localhost/contenthub"
	assert.NoError(t, dbURL.Validate())
}
