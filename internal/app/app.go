package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ticketdesk/ticketdesk-server/internal/auth"
	"github.com/ticketdesk/ticketdesk-server/internal/config"
	"github.com/ticketdesk/ticketdesk-server/internal/core"
	"github.com/ticketdesk/ticketdesk-server/internal/platform"
	"github.com/ticketdesk/ticketdesk-server/internal/service/tickets"
	"github.com/ticketdesk/ticketdesk-server/internal/store"
	"github.com/ticketdesk/ticketdesk-server/internal/store/sqlite"
	"github.com/ticketdesk/ticketdesk-server/internal/transcript"
	transporthttp "github.com/ticketdesk/ticketdesk-server/internal/transport/http"
)

// App wires together the gateway consumer, ticket service, and operator API.
type App struct {
	server          *stdhttp.Server
	gateway         *platform.Gateway
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	transcripts, err := transcript.NewStore(cfg.TranscriptDir)
	if err != nil {
		return nil, fmt.Errorf("init transcript store: %w", err)
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour, // 24 hour token expiry
	}

	authService := auth.NewService(auth.Operator{
		Username:     cfg.OperatorUsername,
		PasswordHash: cfg.OperatorPasswordHash,
	}, jwtConfig)

	client := platform.NewHTTPClient(cfg.APIBaseURL, cfg.BotToken, cfg.RequestTimeout)

	ticketService := tickets.New(tickets.Config{
		TicketPrefix:  cfg.TicketPrefix,
		CategoryID:    cfg.TicketCategoryID,
		SupportRoleID: cfg.SupportRoleID,
		AllowedRoleID: cfg.AllowedRoleID,
		LogChannelID:  cfg.LogChannelID,
		PageTimeout:   cfg.PageTimeout,
	}, core.NewEventLog(), client, st, transcripts, logger)

	gateway := platform.NewGateway(cfg.GatewayURL, cfg.BotToken, tickets.NewHandler(ticketService), logger)
	server := transporthttp.NewServer(authService, st, transcripts, cfg, logger)

	return &App{
		server:          server,
		gateway:         gateway,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the gateway consumer and HTTP server, blocking until context
// cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.gateway.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
