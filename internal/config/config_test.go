package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func secrets() map[string]string {
	return map[string]string{
		"AUTH_SESSION_SECRET": "session-secret-0123456789abcdefghijkl",
		"AUTH_COOKIE_SECRET":  "cookie-secret-0123456789abcdefghijklm",
		"AUTH_JWT_SECRET":     "jwt-secret-0123456789abcdefghijklmnop",
	}
}

func TestParseDefaults(t *testing.T) {
	cfg := &Config{}
	err := env.ParseWithOptions(cfg, env.Options{Environment: secrets()})
	require.NoError(t, err)
	require.NoError(t, cfg.Auth.Validate())

	assert.Equal(t, "development", cfg.Environment.Name)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Auth.SnapshotTTL)
	assert.Equal(t, 5*time.Minute, cfg.Health.Interval)
	assert.False(t, cfg.BrainTree.Enabled())
}

func TestParsePrefixedGroups(t *testing.T) {
	cfg := &Config{}
	vars := map[string]string{
		"DB_DRIVER":             "mysql",
		"DB_URL":                "user:pass@tcp(db:3306)/shop?parseTime=true",
		"STORAGE_DRIVER":        "cloudinary",
		"AUTH_ADMIN_EMAILS":     "a@shop.test,b@shop.test",
		"SERVICE_ROLE_KEY":      "role-key",
		"SERVICE_ANON_KEY":      "anon-key",
		"BRAINTREE_MERCHANT_ID": "m",
		"BRAINTREE_PUBLIC_KEY":  "pub",
		"BRAINTREE_PRIVATE_KEY": "priv",
		"HEALTH_INTERVAL":       "30s",
	}
	for k, v := range secrets() {
		vars[k] = v
	}
	err := env.ParseWithOptions(cfg, env.Options{Environment: vars})
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "cloudinary", cfg.Storage.Driver)
	assert.Equal(t, []string{"a@shop.test", "b@shop.test"}, cfg.Auth.AdminEmails)
	assert.Equal(t, "role-key", cfg.Service.RoleKey)
	assert.Equal(t, "anon-key", cfg.Service.AnonKey)
	assert.True(t, cfg.BrainTree.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Health.Interval)
}

func TestAuthSecrets(t *testing.T) {
	t.Run("missing secrets fail parsing", func(t *testing.T) {
		vars := secrets()
		delete(vars, "AUTH_JWT_SECRET")

		err := env.ParseWithOptions(&Config{}, env.Options{Environment: vars})
		assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
	})

	t.Run("empty secrets fail parsing", func(t *testing.T) {
		vars := secrets()
		vars["AUTH_SESSION_SECRET"] = ""

		err := env.ParseWithOptions(&Config{}, env.Options{Environment: vars})
		assert.ErrorContains(t, err, "AUTH_SESSION_SECRET")
	})

	t.Run("short secret is rejected", func(t *testing.T) {
		cfg := &Config{}
		vars := secrets()
		vars["AUTH_COOKIE_SECRET"] = "change-me"
		require.NoError(t, env.ParseWithOptions(cfg, env.Options{Environment: vars}))

		assert.ErrorContains(t, cfg.Auth.Validate(), "AUTH_COOKIE_SECRET")
	})

	t.Run("shared secret is rejected", func(t *testing.T) {
		cfg := &Config{}
		vars := secrets()
		vars["AUTH_JWT_SECRET"] = vars["AUTH_SESSION_SECRET"]
		require.NoError(t, env.ParseWithOptions(cfg, env.Options{Environment: vars}))

		assert.ErrorContains(t, cfg.Auth.Validate(), "differ")
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Log{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}
