package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-session"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := session.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.GetIdleTimeoutMinutes())
	assert.Equal(t, 30*time.Second, cfg.GetMonitorInterval())
	assert.Equal(t, 2*time.Minute, cfg.GetRefreshWarningMargin())
	assert.Equal(t, 10*time.Second, cfg.GetBootSafetyMargin())
	assert.Equal(t, "/", cfg.GetDefaultRoute())
	assert.Equal(t, "/login", cfg.GetLoginRoute())
	assert.Equal(t, session.DefaultStorageKey, cfg.GetStorageKey())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT_MINUTES", "5")
	t.Setenv("SESSION_MONITOR_INTERVAL", "10s")
	t.Setenv("SESSION_REFRESH_WARNING_MARGIN", "90s")
	t.Setenv("SESSION_DEFAULT_ROUTE", "/home")
	t.Setenv("SESSION_LOGIN_ROUTE", "/signin")
	t.Setenv("SESSION_STORAGE_KEY", "acme:session")

	cfg, err := session.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.GetIdleTimeoutMinutes())
	assert.Equal(t, 10*time.Second, cfg.GetMonitorInterval())
	assert.Equal(t, 90*time.Second, cfg.GetRefreshWarningMargin())
	assert.Equal(t, "/home", cfg.GetDefaultRoute())
	assert.Equal(t, "/signin", cfg.GetLoginRoute())
	assert.Equal(t, "acme:session", cfg.GetStorageKey())
}

func TestLoadConfigRejectsNonPositiveIdleTimeout(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT_MINUTES", "-3")

	cfg, err := session.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.GetIdleTimeoutMinutes(), "non-positive timeout falls back to the default")
}
