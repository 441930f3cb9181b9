package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/apikit/apikit/internal/exception"
)

// Load loads configuration from environment variables and an optional
// config.yaml found in ., ./config or /etc/apikit
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/apikit")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return build(v)
}

// LoadFile loads configuration from path, then environment variables
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func build(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Server
	cfg.Server.Host = v.GetString("server_host")
	cfg.Server.Port = v.GetInt("server_port")
	cfg.Server.Env = v.GetString("server_env")
	cfg.Server.Title = v.GetString("server_title")
	cfg.Server.Version = v.GetString("server_version")
	cfg.Server.Prefix = strings.TrimRight(v.GetString("server_prefix"), "/")
	cfg.Server.GracefulTimeout = v.GetDuration("server_graceful_timeout")
	cfg.Server.RequestTimeout = v.GetDuration("server_request_timeout")

	// Logging
	cfg.Log.Level = v.GetString("log_level")
	cfg.Log.Format = v.GetString("log_format")

	// Sentry
	cfg.Sentry.Enabled = v.GetBool("sentry_enabled")
	cfg.Sentry.DSN = v.GetString("sentry_dsn")
	cfg.Sentry.Environment = v.GetString("sentry_environment")
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.Server.Env
	}
	cfg.Sentry.Release = v.GetString("sentry_release")
	cfg.Sentry.SampleRate = v.GetFloat64("sentry_sample_rate")
	cfg.Sentry.TracesSampleRate = v.GetFloat64("sentry_traces_sample_rate")
	cfg.Sentry.FlushTimeout = v.GetDuration("sentry_flush_timeout")

	// Error responses
	cfg.Exception.TraceHeader = v.GetString("trace_header")
	cfg.Exception.FallbackMatching = v.GetString("exception_fallback_matching")

	// Docs, health, metrics
	cfg.Docs.Enabled = v.GetBool("docs_enabled")
	cfg.Docs.Prefix = strings.TrimRight(v.GetString("docs_prefix"), "/")
	if cfg.Docs.Prefix == "" {
		cfg.Docs.Prefix = cfg.Server.Prefix
	}
	cfg.Health.Path = v.GetString("health_check_path")
	cfg.Metrics.Enabled = v.GetBool("metrics_enabled")
	cfg.Metrics.Path = v.GetString("metrics_path")

	// Validate required fields
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_env", "dev")
	v.SetDefault("server_title", "apikit")
	v.SetDefault("server_version", "dev")
	v.SetDefault("server_prefix", "")
	v.SetDefault("server_graceful_timeout", 10*time.Second)
	v.SetDefault("server_request_timeout", 0)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Sentry defaults
	v.SetDefault("sentry_enabled", false)
	v.SetDefault("sentry_dsn", "")
	v.SetDefault("sentry_environment", "")
	v.SetDefault("sentry_release", "")
	v.SetDefault("sentry_sample_rate", 1.0)
	v.SetDefault("sentry_traces_sample_rate", 0.1)
	v.SetDefault("sentry_flush_timeout", 5*time.Second)

	// Error response defaults
	v.SetDefault("trace_header", exception.TraceIDHeader)
	v.SetDefault("exception_fallback_matching", exception.MatchExact.String())

	// Endpoint defaults
	v.SetDefault("docs_enabled", true)
	v.SetDefault("docs_prefix", "")
	v.SetDefault("health_check_path", "/healthz")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("metrics_path", "/metrics")
}

func validate(cfg *Config) error {
	mode, err := exception.ParseMatchMode(cfg.Exception.FallbackMatching)
	if err != nil {
		return fmt.Errorf("exception_fallback_matching: %w", err)
	}
	cfg.Exception.Fallback = mode

	if cfg.Sentry.Enabled && cfg.Sentry.DSN == "" {
		return fmt.Errorf("sentry_dsn is required when sentry is enabled")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server_port %d out of range", cfg.Server.Port)
	}
	if cfg.Server.GracefulTimeout < 0 {
		return fmt.Errorf("server_graceful_timeout must not be negative")
	}
	if !strings.HasPrefix(cfg.Health.Path, "/") {
		return fmt.Errorf("health_check_path must start with /")
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics_path must start with /")
	}
	return nil
}
