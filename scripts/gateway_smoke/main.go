package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ticketdesk/ticketdesk-server/internal/proto"
)

// Dials the platform gateway and prints incoming event envelopes. Useful for
// checking connectivity and the token before pointing the server at it.
func main() {
	if err := run(); err != nil {
		log.Printf("gateway_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:9090/gateway", "gateway WebSocket address")
	token := flag.String("token", "", "bot token")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := &websocket.DialOptions{}
	if *token != "" {
		opts.HTTPHeader = http.Header{"Authorization": {"Bot " + *token}}
	}

	conn, _, err := websocket.Dial(ctx, *addr, opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("envelope: type=%s\n", env.Type)

		switch env.Type {
		case proto.EventReady:
			var data proto.ReadyData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return fmt.Errorf("unmarshal ready: %w", err)
			}
			fmt.Printf("ready: bot=%s session=%s\n", data.BotTag, data.SessionID)
		case proto.EventMessageCreate:
			var data proto.MessageCreateData
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return fmt.Errorf("unmarshal message create: %w", err)
			}
			author := "?"
			if data.Message.Author != nil {
				author = data.Message.Author.Tag
			}
			fmt.Printf("message: channel=%s author=%s text=%q\n", data.ChannelName, author, data.Message.Content)
		default:
			fmt.Printf("raw data: %s\n", string(env.Data))
		}
	}
}
