package config

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, http.StatusForbidden, cfg.Auth.InactiveStatus)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3, cfg.Database.ConnectRetries)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "classroom:", cfg.Redis.Namespace)
	assert.Empty(t, cfg.Redis.URL)
}

func TestLoadFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JWT_EXPIRES_IN", "3600")
	t.Setenv("INACTIVE_ACCOUNT_STATUS", "500")
	t.Setenv("ALLOWED_ORIGINS", "https://school-app.com, http://localhost:3000/")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("REDIS_URL", "redis://:secret@cache:6380/2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, http.StatusInternalServerError, cfg.Auth.InactiveStatus)
	assert.Equal(t, []string{"https://school-app.com", "http://localhost:3000/"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "redis://:secret@cache:6380/2", cfg.Redis.URL)
}

func TestParseStatusRejectsNonErrorCodes(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, parseStatus(200, http.StatusForbidden))
	assert.Equal(t, 440, parseStatus(440, http.StatusForbidden))
}
