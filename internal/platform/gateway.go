package platform

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/ticketdesk/ticketdesk-server/internal/proto"
)

// GatewayHandler receives dispatched gateway events. Implementations must
// tolerate out-of-scope channels; the gateway does no filtering.
type GatewayHandler interface {
	OnReady(ctx context.Context, data proto.ReadyData)
	OnMessageCreate(ctx context.Context, data proto.MessageCreateData)
	OnMessageUpdate(ctx context.Context, data proto.MessageUpdateData)
	OnMessageDelete(ctx context.Context, data proto.MessageDeleteData)
	OnTicketOpen(ctx context.Context, data proto.TicketOpenData)
	OnTicketClose(ctx context.Context, data proto.TicketCloseData)
}

// Gateway consumes the platform's event stream over a WebSocket connection
// and dispatches frames to a handler.
type Gateway struct {
	url            string
	token          string
	handler        GatewayHandler
	log            *zerolog.Logger
	reconnectDelay time.Duration
}

// NewGateway builds a gateway consumer.
func NewGateway(url, token string, handler GatewayHandler, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		url:            url,
		token:          token,
		handler:        handler,
		log:            logger,
		reconnectDelay: 5 * time.Second,
	}
}

// Run connects and consumes events until the context is canceled. A dropped
// connection is re-dialed after a fixed delay; dispatch errors on single
// frames are logged and skipped.
func (g *Gateway) Run(ctx context.Context) error {
	for {
		if err := g.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.log.Warn().Err(err).Msg("gateway connection lost, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.reconnectDelay):
		}
	}
}

func (g *Gateway) consume(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, g.url, &websocket.DialOptions{
		HTTPHeader: map[string][]string{"Authorization": {"Bot " + g.token}},
	})
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	g.log.Info().Str("url", g.url).Msg("gateway connected")

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "shutting down")
				return err
			}
			return err
		}
		g.Dispatch(ctx, env)
	}
}

// Dispatch decodes one envelope and invokes the matching handler method.
// Unknown frame types and malformed payloads are logged and dropped; a bad
// frame must not take the consumer down.
func (g *Gateway) Dispatch(ctx context.Context, env proto.Envelope) {
	switch env.Type {
	case proto.EventReady:
		var data proto.ReadyData
		if g.decode(env, &data) {
			g.handler.OnReady(ctx, data)
		}
	case proto.EventMessageCreate:
		var data proto.MessageCreateData
		if g.decode(env, &data) {
			g.handler.OnMessageCreate(ctx, data)
		}
	case proto.EventMessageUpdate:
		var data proto.MessageUpdateData
		if g.decode(env, &data) {
			g.handler.OnMessageUpdate(ctx, data)
		}
	case proto.EventMessageDelete:
		var data proto.MessageDeleteData
		if g.decode(env, &data) {
			g.handler.OnMessageDelete(ctx, data)
		}
	case proto.EventTicketOpen:
		var data proto.TicketOpenData
		if g.decode(env, &data) {
			g.handler.OnTicketOpen(ctx, data)
		}
	case proto.EventTicketClose:
		var data proto.TicketCloseData
		if g.decode(env, &data) {
			g.handler.OnTicketClose(ctx, data)
		}
	default:
		g.log.Debug().Str("type", env.Type).Msg("unknown gateway frame, skipping")
	}
}

func (g *Gateway) decode(env proto.Envelope, out any) bool {
	if err := json.Unmarshal(env.Data, out); err != nil {
		g.log.Warn().Err(err).Str("type", env.Type).Msg("malformed gateway payload")
		return false
	}
	return true
}
