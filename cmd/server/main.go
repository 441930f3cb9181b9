package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/apikit/apikit/internal/app"
	"github.com/apikit/apikit/internal/config"
	"github.com/apikit/apikit/internal/middleware"
	"github.com/apikit/apikit/internal/pkg/logger"
)

const appVersion = "0.1.0"

// CLI flags override the loaded configuration
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (searches ., ./config and /etc/apikit when empty)" env:"CONFIG_FILE"`
	Stage   string           `short:"s" help:"Deployment stage; prod and production hide error detail"`
	Port    int              `short:"p" help:"Port to listen on"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("apikit-server"),
		kong.Description("Example API server with structured error responses"),
		kong.Vars{"version": appVersion},
	)

	// Load configuration
	cfg, err := loadConfig(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = logger.Sync() }()

	// Initialize Sentry if enabled
	if cfg.Sentry.Enabled {
		sentryConfig := middleware.SentryConfig{
			DSN:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          cfg.Sentry.Release,
			SampleRate:       cfg.Sentry.SampleRate,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
			FlushTimeout:     cfg.Sentry.FlushTimeout,
		}
		if sentryConfig.Release == "" {
			sentryConfig.Release = "apikit@" + appVersion
		}

		if err := middleware.InitSentry(sentryConfig); err != nil {
			log.Error("failed to initialize Sentry", zap.Error(err))
			cfg.Sentry.Enabled = false
		} else {
			log.Info("Sentry initialized",
				zap.String("environment", sentryConfig.Environment),
				zap.String("release", sentryConfig.Release),
			)
			defer middleware.FlushSentry(sentryConfig.FlushTimeout)
		}
	}

	a := app.New(app.Options{
		Config:  cfg,
		Logger:  log,
		Routers: []app.Router{registerRoutes},
		Startup: []app.Hook{func(context.Context, *app.App) error {
			log.Info("application starting",
				zap.String("stage", cfg.Server.Env),
				zap.String("prefix", cfg.Server.Prefix),
				zap.String("fallback_matching", cfg.Exception.Fallback.String()),
			)
			return nil
		}},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig(cli CLI) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cli.Config != "" {
		cfg, err = config.LoadFile(cli.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cli.Stage != "" {
		cfg.Server.Env = cli.Stage
	}
	if cli.Port != 0 {
		cfg.Server.Port = cli.Port
	}
	if cfg.Server.Version == "" || cfg.Server.Version == "dev" {
		cfg.Server.Version = appVersion
	}
	return cfg, nil
}
