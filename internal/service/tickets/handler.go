package tickets

import (
	"context"

	"github.com/ticketdesk/ticketdesk-server/internal/proto"
)

// Handler adapts the ticket service to the gateway's event interface.
type Handler struct {
	service *Service
}

// NewHandler wraps a ticket service for gateway dispatch.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) OnReady(_ context.Context, data proto.ReadyData) {
	h.service.log.Info().Str("bot_tag", data.BotTag).Str("session_id", data.SessionID).Msg("gateway session ready")
}

func (h *Handler) OnMessageCreate(_ context.Context, data proto.MessageCreateData) {
	h.service.RecordMessageCreate(data)
}

func (h *Handler) OnMessageUpdate(_ context.Context, data proto.MessageUpdateData) {
	h.service.RecordMessageUpdate(data)
}

func (h *Handler) OnMessageDelete(_ context.Context, data proto.MessageDeleteData) {
	h.service.RecordMessageDelete(data)
}

func (h *Handler) OnTicketOpen(ctx context.Context, data proto.TicketOpenData) {
	if _, err := h.service.Open(ctx, data.Actor, data.Category); err != nil {
		h.reportFailure(ctx, data.Actor.ID, err, "ticket open failed")
	}
}

func (h *Handler) OnTicketClose(ctx context.Context, data proto.TicketCloseData) {
	if _, err := h.service.Close(ctx, data.ChannelID, data.Actor); err != nil {
		h.reportFailure(ctx, data.Actor.ID, err, "ticket close failed")
	}
}

// reportFailure logs a failed ticket command and, when the error carries a
// user-actionable code, tells the actor what went wrong. Delivery is
// best-effort.
func (h *Handler) reportFailure(ctx context.Context, userID string, err error, msg string) {
	ev := h.service.log.Warn().Err(err).Str("user_id", userID)
	ce := ClassifyError(err)
	if ce == nil {
		ev.Msg(msg)
		return
	}
	ev.Str("code", ce.Code).Msg(msg)

	if dmErr := h.service.platform.SendDirect(ctx, userID, ce.Message); dmErr != nil {
		h.service.log.Debug().Err(dmErr).Str("user_id", userID).Msg("failed to deliver failure notice")
	}
}
