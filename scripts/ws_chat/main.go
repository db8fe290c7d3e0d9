package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/chatlink/chatlink-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT access token (from /api/login)")
	room := flag.Int64("room", 1, "room id to join")
	flag.Parse()

	if *token == "" {
		return errors.New("missing -token (obtain one via POST /api/login)")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	url := *addr + "?token=" + *token
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	joinPayload, err := json.Marshal(proto.RoomData{RoomID: *room})
	if err != nil {
		return fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoinRoom, Data: joinPayload}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}

	fmt.Printf("Connected to %s, room %d\n", *addr, *room)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *room)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var raw struct {
			Type  string          `json:"type"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch raw.Type {
		case proto.OutboundTypeNewMessage, proto.OutboundTypeAck:
			var msg proto.MessagePayload
			if err := json.Unmarshal(raw.Data, &msg); err != nil {
				log.Printf("unmarshal message: %v", err)
				continue
			}
			prefix := ""
			if raw.Type == proto.OutboundTypeAck {
				prefix = "(sent) "
			}
			fmt.Printf("%s[room %d] user %d: %s\n", prefix, msg.RoomID, msg.SenderID, msg.Content)
		case proto.OutboundTypeTyping:
			var evt proto.TypingPayload
			if err := json.Unmarshal(raw.Data, &evt); err != nil {
				log.Printf("unmarshal typing: %v", err)
				continue
			}
			verb := "stopped typing"
			if evt.IsTyping {
				verb = "is typing"
			}
			fmt.Printf("[room %d] user %d %s\n", evt.RoomID, evt.UserID, verb)
		case proto.OutboundTypePresenceChange:
			var evt proto.PresencePayload
			if err := json.Unmarshal(raw.Data, &evt); err != nil {
				log.Printf("unmarshal presence: %v", err)
				continue
			}
			fmt.Printf("user %d is %s\n", evt.UserID, evt.Status)
		case proto.OutboundTypeError:
			if raw.Error != nil {
				fmt.Printf("error: %s (%s)\n", raw.Error.Msg, raw.Error.Code)
			}
		default:
			fmt.Printf("type=%s data=%s\n", raw.Type, string(raw.Data))
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, room int64) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			payload, err := json.Marshal(proto.SendMessageData{RoomID: room, Content: text})
			if err != nil {
				log.Printf("marshal msg: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeSendMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
