package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, 8001, c.Port)
	assert.Equal(t, EnvDevelopment, c.Env)
	assert.False(t, c.IsProduction())
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "memory", c.SessionStore)
	assert.Equal(t, 24*time.Hour, c.SessionLifetime)
	assert.Equal(t, 12, c.BcryptCost)
	assert.False(t, c.Kakao.Enabled())
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_EnvOverlay(t *testing.T) {
	c, err := LoadConfig(nil, env(map[string]string{
		"PORT":               "9000",
		"NODE_ENV":           "production",
		"COOKIE_SECRET":      "s3cret",
		"DB_DRIVER":          "postgres",
		"DATABASE_URL":       "postgres://localhost/nodebird",
		"SESSION_STORE":      "redis",
		"REDIS_URL":          "redis://localhost:6379/0",
		"KAKAO_ID":           "kakao-id",
		"KAKAO_CALLBACK_URL": "https://nodebird.example/auth/kakao/callback",
		"BCRYPT_COST":        "10",
		"SESSION_LIFETIME":   "2h",
		"SECURE_COOKIE":      "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, c.Port)
	assert.True(t, c.IsProduction())
	assert.Equal(t, "s3cret", c.CookieSecret)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "redis://localhost:6379/0", c.RedisURL)
	assert.True(t, c.Kakao.Enabled())
	assert.Equal(t, "https://nodebird.example/auth/kakao/callback", c.Kakao.CallbackURL)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, 2*time.Hour, c.SessionLifetime)
	assert.True(t, c.SecureCookie)
}

func TestLoadConfig_AppEnvWinsOverNodeEnv(t *testing.T) {
	c, err := LoadConfig(nil, env(map[string]string{"APP_ENV": "development", "NODE_ENV": "production"}))
	require.NoError(t, err)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_FlagsWinOverEnv(t *testing.T) {
	c, err := LoadConfig([]string{"-port", "7000", "-env", "development"},
		env(map[string]string{"PORT": "9000", "NODE_ENV": "production"}))
	require.NoError(t, err)
	assert.Equal(t, 7000, c.Port)
	assert.Equal(t, EnvDevelopment, c.Env)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "bad port", env: map[string]string{"PORT": "eighty"}},
		{name: "bad duration", env: map[string]string{"SESSION_LIFETIME": "forever"}},
		{name: "default secret in production", env: map[string]string{"NODE_ENV": "production"}},
		{name: "redis without url", env: map[string]string{"SESSION_STORE": "redis"}},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "oracle"}},
		{name: "s3 without bucket", env: map[string]string{"UPLOAD_STORE": "s3"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.args, env(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NODEBIRD_TEST_VAR=from-file\nNODEBIRD_TEST_SET=from-file\n"), 0o600))

	t.Setenv("APP_ENV", "development")
	t.Setenv("NODEBIRD_TEST_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("NODEBIRD_TEST_VAR") })

	LoadDotEnv(path)
	assert.Equal(t, "from-file", os.Getenv("NODEBIRD_TEST_VAR"))
	assert.Equal(t, "from-env", os.Getenv("NODEBIRD_TEST_SET"))

	// missing files are ignored
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
