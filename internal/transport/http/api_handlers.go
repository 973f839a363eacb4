package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ticketdesk/ticketdesk-server/internal/auth"
	"github.com/ticketdesk/ticketdesk-server/internal/store"
	"github.com/ticketdesk/ticketdesk-server/internal/store/sqlite"
	"github.com/ticketdesk/ticketdesk-server/internal/transcript"
)

const defaultListLimit = 50

// APIHandlers provides HTTP handlers for the operator API.
type APIHandlers struct {
	authService *auth.Service
	tickets     store.TicketStore
	transcripts *transcript.Store
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, tickets store.TicketStore, transcripts *transcript.Store, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		tickets:     tickets,
		transcripts: transcripts,
		log:         logger,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TicketResponse represents a closed ticket.
type TicketResponse struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	OpenedBy    string    `json:"opened_by"`
	OpenTime    string    `json:"open_time"`
	ClosedBy    string    `json:"closed_by"`
	ClosedAt    time.Time `json:"closed_at"`
	EventCount  int       `json:"event_count"`
}

func ticketResponse(t *store.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		ChannelID:   t.ChannelID,
		ChannelName: t.ChannelName,
		OpenedBy:    t.OpenedBy,
		OpenTime:    t.OpenTime,
		ClosedBy:    t.ClosedBy,
		ClosedAt:    t.ClosedAt,
		EventCount:  t.EventCount,
	}
}

// Login handles operator login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login operator")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("username", req.Username).Msg("operator logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// ListTickets returns closed tickets, newest first.
// GET /api/tickets?limit=N
func (h *APIHandlers) ListTickets(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	tickets, err := h.tickets.ListTickets(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list tickets")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, ticketResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

// GetTicket returns a single closed ticket.
// GET /api/tickets/:id
func (h *APIHandlers) GetTicket(c *gin.Context) {
	ticket, err := h.tickets.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		h.log.Error().Err(err).Str("ticket_id", c.Param("id")).Msg("failed to get ticket")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ticketResponse(ticket))
}

// GetTranscript serves the stored HTML transcript.
// GET /api/tickets/:id/transcript
func (h *APIHandlers) GetTranscript(c *gin.Context) {
	id := c.Param("id")

	// Resolve through the store first so unknown IDs 404 instead of probing
	// the filesystem with user input.
	if _, err := h.tickets.GetTicket(c.Request.Context(), id); err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
			return
		}
		h.log.Error().Err(err).Str("ticket_id", id).Msg("failed to get ticket")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	doc, err := h.transcripts.Read(id)
	if err != nil {
		h.log.Error().Err(err).Str("ticket_id", id).Msg("failed to read transcript")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}
