package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ticketdesk/ticketdesk-server/internal/auth"
	"github.com/ticketdesk/ticketdesk-server/internal/config"
	"github.com/ticketdesk/ticketdesk-server/internal/store"
	"github.com/ticketdesk/ticketdesk-server/internal/transcript"
)

// NewServer builds the operator API server.
func NewServer(authService *auth.Service, tickets store.TicketStore, transcripts *transcript.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := NewAPIHandlers(authService, tickets, transcripts, logger)
	router.POST("/api/login", api.Login)

	protected := router.Group("/api", AuthMiddleware(authService, logger))
	protected.GET("/tickets", api.ListTickets)
	protected.GET("/tickets/:id", api.GetTicket)
	protected.GET("/tickets/:id/transcript", api.GetTranscript)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
