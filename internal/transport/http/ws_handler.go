package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/auth"
	"github.com/chatlink/chatlink-server/internal/chat"
	"github.com/chatlink/chatlink-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the chat core.
type WSHandler struct {
	core         *chat.Core
	authService  *auth.Service
	msgRateLimit int
	log          *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. msgRateLimit caps inbound
// events per connection per minute; zero disables the cap.
func NewWSHandler(core *chat.Core, authService *auth.Service, msgRateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{core: core, authService: authService, msgRateLimit: msgRateLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	claims, err := h.authenticate(r)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws auth failed")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer wsConn.Close(websocket.StatusInternalError, "internal error")

	conn := chat.NewConn(claims.UserID, h.core.Sessions.QueueSize())
	session := h.core.Dispatcher.Open(conn)
	defer session.Close()

	h.log.Info().Int64("user_id", claims.UserID).Str("conn_id", conn.ID()).Msg("ws connection open")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.msgRateLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, wsConn, session, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, wsConn, conn)
	}()

	err = <-errCh
	session.Close() // unregister before the sibling goroutine unwinds
	cancel()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Int64("user_id", claims.UserID).Msg("ws connection closed with error")
		}
	}

	wsConn.Close(status, reason)
}

// authenticate accepts the JWT from the Authorization header or, for browser
// clients that cannot set headers on WebSocket upgrades, a token query param.
func (h *WSHandler) authenticate(r *stdhttp.Request) (*auth.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		return nil, errors.New("missing token")
	}
	return h.authService.ValidateToken(token)
}

func (h *WSHandler) readLoop(ctx context.Context, wsConn *websocket.Conn, session *chat.Session, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, wsConn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if writeErr := wsjson.Write(ctx, wsConn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "rate_limited", Msg: "too many messages, slow down"},
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		event, protoErr := inboundToEvent(inbound)
		if protoErr != nil {
			if writeErr := wsjson.Write(ctx, wsConn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); writeErr != nil {
				return writeErr
			}
			continue
		}
		session.Handle(ctx, event)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, wsConn *websocket.Conn, conn *chat.Conn) error {
	for {
		select {
		case event, ok := <-conn.Events():
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, wsConn, outboundFromEvent(event)); err != nil {
				h.log.Warn().Err(err).Str("conn_id", conn.ID()).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
