package config

import (
	"net"
	"strconv"
	"time"

	"github.com/apikit/apikit/internal/exception"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Sentry    SentryConfig
	Exception ExceptionConfig
	Docs      DocsConfig
	Health    HealthConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Env             string        `mapstructure:"env"`
	Title           string        `mapstructure:"title"`
	Version         string        `mapstructure:"version"`
	Prefix          string        `mapstructure:"prefix"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	DSN              string        `mapstructure:"dsn"`
	Environment      string        `mapstructure:"environment"`
	Release          string        `mapstructure:"release"`
	SampleRate       float64       `mapstructure:"sample_rate"`
	TracesSampleRate float64       `mapstructure:"traces_sample_rate"`
	FlushTimeout     time.Duration `mapstructure:"flush_timeout"`
}

// ExceptionConfig holds error response configuration
type ExceptionConfig struct {
	TraceHeader      string `mapstructure:"trace_header"`
	FallbackMatching string `mapstructure:"fallback_matching"`
	// Fallback is FallbackMatching parsed by Load
	Fallback exception.MatchMode `mapstructure:"-"`
}

// DocsConfig holds error documentation endpoint configuration
type DocsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// HealthConfig holds health check configuration
type HealthConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig holds Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsProduction returns true if the stage hides error detail
func (c Config) IsProduction() bool {
	return exception.IsProduction(c.Server.Env)
}
