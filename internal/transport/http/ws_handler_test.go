package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/chatlink/chatlink-server/internal/proto"
	"github.com/chatlink/chatlink-server/internal/store"
)

// wsEnvelope mirrors proto.Outbound with raw data for test-side decoding.
type wsEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialWS(ctx context.Context, t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close(websocket.StatusNormalClosure, "done")
	})
	return conn
}

func sendWS(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", msgType, err)
	}
}

func readWS(ctx context.Context, t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	var envelope wsEnvelope
	if err := wsjson.Read(ctx, conn, &envelope); err != nil {
		t.Fatalf("read: %v", err)
	}
	return envelope
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	env := startTestEnv(t)
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	// No token
	resp, err := stdhttp.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Errorf("expected status 401 without token, got %d", resp.StatusCode)
	}

	// Garbage token
	resp, err = stdhttp.Get(ts.URL + "/ws?token=garbage")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusUnauthorized {
		t.Errorf("expected status 401 with bad token, got %d", resp.StatusCode)
	}
}

func TestWebSocketChatFlow(t *testing.T) {
	env := startTestEnv(t)
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	aliceToken, aliceID := env.registerUser(t, "alice")
	bobToken, bobID := env.registerUser(t, "bob")

	room, err := env.store.CreateRoom(context.Background(), "general", store.RoomTypePublic, &aliceID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for _, uid := range []int64{aliceID, bobID} {
		if err := env.store.AddMember(context.Background(), uid, room.ID); err != nil {
			t.Fatalf("add member: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alice := dialWS(ctx, t, ts, aliceToken)
	sendWS(ctx, t, alice, proto.InboundTypeJoinRoom, proto.RoomData{RoomID: room.ID})
	sendWS(ctx, t, alice, proto.InboundTypeSendMessage, proto.SendMessageData{RoomID: room.ID, Content: "hello"})

	// The sender gets exactly one ack carrying the persisted message.
	envelope := readWS(ctx, t, alice)
	if envelope.Type != proto.OutboundTypeAck {
		t.Fatalf("expected ack, got %s", envelope.Type)
	}
	var ack proto.MessagePayload
	if err := json.Unmarshal(envelope.Data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.MessageID == 0 || ack.SenderID != aliceID || ack.Content != "hello" {
		t.Errorf("unexpected ack payload: %+v", ack)
	}

	// Bob joins after the first message; he sees only what follows.
	bob := dialWS(ctx, t, ts, bobToken)
	sendWS(ctx, t, bob, proto.InboundTypeJoinRoom, proto.RoomData{RoomID: room.ID})
	sendWS(ctx, t, bob, proto.InboundTypeSendMessage, proto.SendMessageData{RoomID: room.ID, Content: "hi"})

	envelope = readWS(ctx, t, bob)
	if envelope.Type != proto.OutboundTypeAck {
		t.Fatalf("expected ack for bob, got %s", envelope.Type)
	}

	// Alice receives bob's message as new_message, not an ack.
	envelope = readWS(ctx, t, alice)
	if envelope.Type != proto.OutboundTypeNewMessage {
		t.Fatalf("expected new_message for alice, got %s", envelope.Type)
	}
	var incoming proto.MessagePayload
	if err := json.Unmarshal(envelope.Data, &incoming); err != nil {
		t.Fatalf("unmarshal new_message: %v", err)
	}
	if incoming.SenderID != bobID || incoming.Content != "hi" {
		t.Errorf("unexpected new_message payload: %+v", incoming)
	}

	// Typing indicator reaches the other member but not the typer.
	sendWS(ctx, t, alice, proto.InboundTypeTyping, proto.TypingData{RoomID: room.ID, IsTyping: true})

	envelope = readWS(ctx, t, bob)
	if envelope.Type != proto.OutboundTypeTyping {
		t.Fatalf("expected typing for bob, got %s", envelope.Type)
	}
	var typing proto.TypingPayload
	if err := json.Unmarshal(envelope.Data, &typing); err != nil {
		t.Fatalf("unmarshal typing: %v", err)
	}
	if typing.UserID != aliceID || !typing.IsTyping {
		t.Errorf("unexpected typing payload: %+v", typing)
	}

	// Read receipt fans out as a message_status event.
	sendWS(ctx, t, bob, proto.InboundTypeReadReceipt, proto.ReadReceiptData{RoomID: room.ID, MessageID: ack.MessageID})

	envelope = readWS(ctx, t, alice)
	if envelope.Type != proto.OutboundTypeMessageStatus {
		t.Fatalf("expected message_status for alice, got %s", envelope.Type)
	}
	var status proto.MessageStatusPayload
	if err := json.Unmarshal(envelope.Data, &status); err != nil {
		t.Fatalf("unmarshal message_status: %v", err)
	}
	if status.MessageID != ack.MessageID || status.UserID != bobID || status.Status != "read" {
		t.Errorf("unexpected message_status payload: %+v", status)
	}
}

func TestWebSocketSendWithoutMembership(t *testing.T) {
	env := startTestEnv(t)
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	_, ownerID := env.registerUser(t, "owner")

	room, err := env.store.CreateRoom(context.Background(), "members-only", store.RoomTypePublic, &ownerID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	strangerToken, _ := env.registerUser(t, "stranger")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stranger := dialWS(ctx, t, ts, strangerToken)
	sendWS(ctx, t, stranger, proto.InboundTypeSendMessage, proto.SendMessageData{RoomID: room.ID, Content: "let me in"})

	envelope := readWS(ctx, t, stranger)
	if envelope.Type != proto.OutboundTypeError {
		t.Fatalf("expected error, got %s", envelope.Type)
	}
	if envelope.Error == nil || envelope.Error.Code != "forbidden" {
		t.Errorf("expected forbidden error, got %+v", envelope.Error)
	}

	// Nothing was persisted
	messages, err := env.store.ListMessages(context.Background(), room.ID, 10, nil)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected no persisted messages, got %d", len(messages))
	}
}

func TestWebSocketMalformedPayload(t *testing.T) {
	env := startTestEnv(t)
	ts := httptest.NewServer(env.handler)
	t.Cleanup(ts.Close)

	token, _ := env.registerUser(t, "mallory")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, ts, token)
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoinRoom, Data: json.RawMessage(`"not an object"`)}); err != nil {
		t.Fatalf("send malformed join: %v", err)
	}

	envelope := readWS(ctx, t, conn)
	if envelope.Type != proto.OutboundTypeError {
		t.Fatalf("expected error, got %s", envelope.Type)
	}
	if envelope.Error == nil || envelope.Error.Code != "malformed_input" {
		t.Errorf("expected malformed_input error, got %+v", envelope.Error)
	}
}
