package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apikit/apikit/internal/exception"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, 10*time.Second, cfg.Server.GracefulTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, exception.TraceIDHeader, cfg.Exception.TraceHeader)
	assert.Equal(t, exception.MatchExact, cfg.Exception.Fallback)
	assert.True(t, cfg.Docs.Enabled)
	assert.Equal(t, "/healthz", cfg.Health.Path)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Sentry.Enabled)
	assert.Equal(t, "dev", cfg.Sentry.Environment)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_ENV", "prod")
	t.Setenv("SERVER_PREFIX", "/api/v1/")
	t.Setenv("EXCEPTION_FALLBACK_MATCHING", "nearest")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/api/v1", cfg.Server.Prefix)
	assert.Equal(t, "/api/v1", cfg.Docs.Prefix)
	assert.Equal(t, exception.MatchNearest, cfg.Exception.Fallback)
}

func TestLoadFile(t *testing.T) {
	t.Run("reads yaml", func(t *testing.T) {
		path := writeConfig(t, `
server_port: 7000
server_env: production
server_graceful_timeout: 3s
log_level: debug
docs_enabled: false
docs_prefix: /internal
sentry_enabled: true
sentry_dsn: https://key@sentry.example.com/1
`)
		cfg, err := LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, 7000, cfg.Server.Port)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, 3*time.Second, cfg.Server.GracefulTimeout)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.False(t, cfg.Docs.Enabled)
		assert.Equal(t, "/internal", cfg.Docs.Prefix)
		assert.True(t, cfg.Sentry.Enabled)
		assert.Equal(t, "production", cfg.Sentry.Environment)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "warning")
		cfg, err := LoadFile(writeConfig(t, "log_level: debug\n"))
		require.NoError(t, err)
		assert.Equal(t, "warning", cfg.Log.Level)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown match mode", "exception_fallback_matching: fuzzy\n", "exception_fallback_matching"},
		{"sentry without dsn", "sentry_enabled: true\n", "sentry_dsn"},
		{"port out of range", "server_port: 70000\n", "server_port"},
		{"relative health path", "health_check_path: healthz\n", "health_check_path"},
		{"relative metrics path", "metrics_path: metrics\n", "metrics_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
