package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fanout turns one inbound send into a durably recorded message plus a live
// broadcast. Persistence is the durability boundary: nothing is broadcast
// unless the store accepted the message, and a store failure leaves no side
// effects behind.
type Fanout struct {
	log      *zerolog.Logger
	sessions *SessionRegistry
	rooms    *RoomIndex
	authz    Authorizer
	gateway  MessageGateway

	// Per-room broadcast sections. Held only while enqueueing to member
	// connections (no I/O), so each message's events land on every member
	// queue as one uninterleaved batch.
	seqMu sync.Mutex
	seq   map[int64]*sync.Mutex
}

// NewFanout builds the fan-out engine.
func NewFanout(sessions *SessionRegistry, rooms *RoomIndex, authz Authorizer, gateway MessageGateway, logger *zerolog.Logger) *Fanout {
	return &Fanout{
		log:      logger,
		sessions: sessions,
		rooms:    rooms,
		authz:    authz,
		gateway:  gateway,
		seq:      make(map[int64]*sync.Mutex),
	}
}

// Send validates, persists and broadcasts one message. On success every
// present member except the sender receives a new_message event and the
// sender's live connections receive an ack referencing the same canonical
// id, whether or not the sender has joined the room's live view. Failures
// are reported to the caller only; no partial fan-out ever happens.
func (f *Fanout) Send(ctx context.Context, senderID, roomID int64, body string, replyToID *int64) (*Message, *ChatError) {
	ok, err := f.authz.AuthorizeSend(ctx, senderID, roomID)
	if err != nil {
		f.log.Error().Err(err).Int64("user_id", senderID).Int64("room_id", roomID).Msg("authorization check failed")
		return nil, chatError(ErrCodeStorageError, "authorization check failed")
	}
	if !ok {
		return nil, chatError(ErrCodeForbidden, "you cannot send messages to this room")
	}

	if replyToID != nil {
		exists, err := f.gateway.ResolveReplyTarget(ctx, *replyToID, roomID)
		if err != nil {
			f.log.Error().Err(err).Int64("message_id", *replyToID).Int64("room_id", roomID).Msg("reply target lookup failed")
			return nil, chatError(ErrCodeStorageError, "reply target lookup failed")
		}
		if !exists {
			return nil, chatError(ErrCodeInvalidReference, "reply target not found in this room")
		}
	}

	msg, err := f.gateway.PersistMessage(ctx, roomID, senderID, body, replyToID)
	if err != nil {
		f.log.Error().Err(err).Int64("user_id", senderID).Int64("room_id", roomID).Msg("message persistence failed")
		return nil, chatError(ErrCodeStorageError, "message could not be stored")
	}

	f.broadcastMessage(msg)

	if err := f.gateway.TouchRoomActivity(ctx, roomID, msg.CreatedAt); err != nil {
		f.log.Warn().Err(err).Int64("room_id", roomID).Msg("room activity touch failed")
	}

	return msg, nil
}

// broadcastMessage enqueues the message to every present member under the
// room's broadcast section. Channel enqueues only; socket writes happen in
// the per-connection write loops.
func (f *Fanout) broadcastMessage(msg *Message) {
	seq := f.roomSeq(msg.RoomID)
	seq.Lock()
	defer seq.Unlock()

	ack := &Event{Kind: EventAck, RoomID: msg.RoomID, UserID: msg.SenderID, Message: msg, At: msg.CreatedAt}
	if _, err := f.sessions.Send(msg.SenderID, ack); err != nil && err != ErrNoConnections {
		f.log.Warn().Err(err).Int64("user_id", msg.SenderID).Int64("room_id", msg.RoomID).Msg("ack delivery failed")
	}

	newMsg := &Event{Kind: EventNewMessage, RoomID: msg.RoomID, UserID: msg.SenderID, Message: msg, At: msg.CreatedAt}
	for _, member := range f.rooms.Members(msg.RoomID) {
		if member == msg.SenderID {
			continue
		}
		if _, err := f.sessions.Send(member, newMsg); err != nil && err != ErrNoConnections {
			f.log.Warn().Err(err).Int64("user_id", member).Int64("room_id", msg.RoomID).Msg("message delivery failed")
		}
	}
}

// BroadcastStatus fans a message status change out to every present member
// except excludeUserID (the reporter).
func (f *Fanout) BroadcastStatus(roomID, messageID int64, status string, excludeUserID int64) {
	ev := &Event{
		Kind:      EventMessageStatus,
		RoomID:    roomID,
		UserID:    excludeUserID,
		MessageID: messageID,
		Status:    status,
		At:        time.Now(),
	}
	for _, member := range f.rooms.Members(roomID) {
		if member == excludeUserID {
			continue
		}
		if _, err := f.sessions.Send(member, ev); err != nil && err != ErrNoConnections {
			f.log.Warn().Err(err).Int64("user_id", member).Int64("room_id", roomID).Msg("status delivery failed")
		}
	}
}

func (f *Fanout) roomSeq(roomID int64) *sync.Mutex {
	f.seqMu.Lock()
	defer f.seqMu.Unlock()
	mu, ok := f.seq[roomID]
	if !ok {
		mu = &sync.Mutex{}
		f.seq[roomID] = mu
	}
	return mu
}
