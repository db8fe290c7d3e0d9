package chat

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// InboundKind identifies what a connected client wants to do. The dispatch
// over kinds is a closed switch; adding a kind without handling it is a
// compile-visible change in one place.
type InboundKind int

const (
	// InboundUnknown is any tag the protocol layer did not recognize.
	// Unknown tags are logged and ignored, never fatal.
	InboundUnknown InboundKind = iota
	// InboundJoinRoom subscribes the connection's user to a room.
	InboundJoinRoom
	// InboundLeaveRoom unsubscribes the user from a room.
	InboundLeaveRoom
	// InboundTyping updates the user's typing indicator for a room.
	InboundTyping
	// InboundSendMessage posts a message to a room.
	InboundSendMessage
	// InboundReadReceipt reports that the user read a message.
	InboundReadReceipt
)

// Inbound is the decoded client event handed to a session for dispatch.
type Inbound struct {
	Kind      InboundKind
	RoomID    int64
	Body      string
	ReplyToID *int64
	IsTyping  bool
	MessageID int64
}

// Dispatcher routes inbound events from open sessions to the core
// components. One instance serves all connections.
type Dispatcher struct {
	log         *zerolog.Logger
	sessions    *SessionRegistry
	rooms       *RoomIndex
	broadcaster *Broadcaster
	fanout      *Fanout
}

// NewDispatcher builds the dispatcher over already-wired components.
func NewDispatcher(sessions *SessionRegistry, rooms *RoomIndex, broadcaster *Broadcaster, fanout *Fanout, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log:         logger,
		sessions:    sessions,
		rooms:       rooms,
		broadcaster: broadcaster,
		fanout:      fanout,
	}
}

// Connection lifecycle states.
const (
	stateConnecting int32 = iota
	stateOpen
	stateClosing
	stateClosed
)

// Session is the per-connection state machine: Connecting -> Open ->
// Closing -> Closed. Events are dispatched only while Open; Close runs the
// registry unregister exactly once, which is the single cleanup path for
// room presence and typing state.
type Session struct {
	d     *Dispatcher
	conn  *Conn
	state atomic.Int32
}

// Open registers the connection and transitions the session to Open. The
// registry fires the presence-online transition if this is the user's first
// connection.
func (d *Dispatcher) Open(conn *Conn) *Session {
	s := &Session{d: d, conn: conn}
	s.state.Store(stateConnecting)
	d.sessions.Register(conn.UserID(), conn)
	s.state.Store(stateOpen)
	return s
}

// Conn returns the session's connection handle.
func (s *Session) Conn() *Conn { return s.conn }

// Close tears the session down. Idempotent; only the first call unregisters.
func (s *Session) Close() {
	if !s.state.CompareAndSwap(stateOpen, stateClosing) {
		return
	}
	s.d.sessions.Unregister(s.conn.UserID(), s.conn)
	s.state.Store(stateClosed)
}

// Handle dispatches one inbound event. Semantically malformed events produce
// an error event back on the same connection and change no state; unknown
// kinds are ignored. Events arriving outside the Open state are dropped.
func (s *Session) Handle(ctx context.Context, in Inbound) {
	if s.state.Load() != stateOpen {
		return
	}
	s.conn.Touch()

	userID := s.conn.UserID()
	d := s.d

	switch in.Kind {
	case InboundJoinRoom:
		if in.RoomID == 0 {
			s.reject("room_id is required")
			return
		}
		d.rooms.Join(userID, in.RoomID)

	case InboundLeaveRoom:
		if in.RoomID == 0 {
			s.reject("room_id is required")
			return
		}
		if wasTyping := d.rooms.Leave(userID, in.RoomID); wasTyping {
			d.broadcaster.typingCleared(userID, in.RoomID)
		}

	case InboundTyping:
		if in.RoomID == 0 {
			s.reject("room_id is required")
			return
		}
		d.broadcaster.SetTyping(userID, in.RoomID, in.IsTyping)

	case InboundSendMessage:
		if in.RoomID == 0 || in.Body == "" {
			s.reject("room_id and content are required")
			return
		}
		if _, cerr := d.fanout.Send(ctx, userID, in.RoomID, in.Body, in.ReplyToID); cerr != nil {
			s.fail(cerr)
		}

	case InboundReadReceipt:
		if in.RoomID == 0 || in.MessageID == 0 {
			s.reject("room_id and message_id are required")
			return
		}
		d.fanout.BroadcastStatus(in.RoomID, in.MessageID, MessageStatusRead, userID)

	case InboundUnknown:
		d.log.Debug().Int64("user_id", userID).Str("conn_id", s.conn.ID()).Msg("ignoring unknown inbound event")
	}
}

// reject reports a malformed event back to this connection only.
func (s *Session) reject(msg string) {
	s.fail(chatError(ErrCodeMalformedInput, msg))
}

// fail delivers an error event to this connection only; sibling connections
// of the same user never see another connection's failures.
func (s *Session) fail(cerr *ChatError) {
	s.conn.Deliver(&Event{Kind: EventError, Err: cerr})
}
