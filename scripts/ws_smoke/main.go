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

	"github.com/vovakirdan/wirechat-presence/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

type outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "bearer token from POST /api/auth/login")
	room := flag.Int64("room", 1, "room id to join and post to")
	to := flag.Int64("to", 0, "receiver user id; sends a private message instead of a room message")
	text := flag.String("text", "hello from smoke test", "message content to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var opts *websocket.DialOptions
	if *token != "" {
		opts = &websocket.DialOptions{HTTPHeader: http.Header{"Authorization": []string{"Bearer " + *token}}}
	}
	conn, _, err := websocket.Dial(ctx, *addr, opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeJoin, proto.RoomData{RoomID: *room}); err != nil {
		return err
	}

	msg := proto.MsgData{Content: *text}
	if *to > 0 {
		msg.ReceiverID = to
	} else {
		msg.RoomID = room
	}
	if err := send(proto.InboundTypeMsg, msg); err != nil {
		return err
	}

	for {
		var out outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if out.Type == proto.OutboundTypeError && out.Error != nil {
			fmt.Printf("Error: code=%s msg=%s\n", out.Error.Code, out.Error.Msg)
			continue
		}

		switch out.Event {
		case proto.EventNameWelcome:
			var evt proto.EventWelcome
			if err := json.Unmarshal(out.Data, &evt); err == nil {
				fmt.Printf("Welcome: session=%s user=%d online=%v\n", evt.SessionID, evt.UserID, evt.OnlineUsers)
			}
		case proto.EventNamePresence:
			var evt proto.EventPresence
			if err := json.Unmarshal(out.Data, &evt); err == nil {
				fmt.Printf("Presence: user=%d online=%v seq=%d\n", evt.UserID, evt.Online, evt.Seq)
			}
		case proto.EventNameJoined:
			fmt.Printf("Joined: %s\n", string(out.Data))
		case proto.EventNameMessage:
			var evt proto.EventMessage
			if err := json.Unmarshal(out.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("Message: id=%d from=%s content=%q at=%s\n", evt.ID, evt.SenderUsername, evt.Content, evt.Timestamp)
			return nil
		}
	}
}
