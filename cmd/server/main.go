package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ticketdesk/ticketdesk-server/internal/app"
	"github.com/ticketdesk/ticketdesk-server/internal/config"
	"github.com/ticketdesk/ticketdesk-server/internal/log"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")

	defaults := config.Default()
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	shutdownTimeout := flag.Duration("shutdown-timeout", defaults.ShutdownTimeout, "graceful shutdown timeout")
	flag.Parse()

	bootLogger := log.New(defaults.LogLevel, defaults.LogFormat)

	cfg, resolvedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.ShutdownTimeout = *shutdownTimeout

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config_path", resolvedPath).Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize application")
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting ticketdesk server")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
