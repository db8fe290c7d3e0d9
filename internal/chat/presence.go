package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type typingKey struct {
	userID int64
	roomID int64
}

// Broadcaster emits presence and typing transitions. Typing events fan out to
// the other members present in the room; presence transitions go to the users
// the ContactDirectory names. With a non-zero TTL a typing flag that is never
// explicitly cleared expires on its own.
type Broadcaster struct {
	log      *zerolog.Logger
	sessions *SessionRegistry
	rooms    *RoomIndex
	contacts ContactDirectory

	typingTTL time.Duration
	timerMu   sync.Mutex
	timers    map[typingKey]*time.Timer
}

// NewBroadcaster builds a broadcaster. typingTTL of zero disables expiry.
func NewBroadcaster(sessions *SessionRegistry, rooms *RoomIndex, contacts ContactDirectory, typingTTL time.Duration, logger *zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		log:       logger,
		sessions:  sessions,
		rooms:     rooms,
		contacts:  contacts,
		typingTTL: typingTTL,
		timers:    make(map[typingKey]*time.Timer),
	}
}

// SetTyping updates the user's typing flag for the room and broadcasts the
// state to every other present member. Redundant updates still broadcast;
// the indicator is last-write-wins. Users not present in the room are
// ignored, keeping the typing set a subset of room presence.
func (b *Broadcaster) SetTyping(userID, roomID int64, isTyping bool) {
	if !b.rooms.setTyping(userID, roomID, isTyping) {
		b.log.Debug().Int64("user_id", userID).Int64("room_id", roomID).Msg("typing ignored, user not in room")
		return
	}

	if isTyping {
		b.armTypingExpiry(userID, roomID)
	} else {
		b.cancelTypingExpiry(userID, roomID)
	}

	b.fanTyping(userID, roomID, isTyping)
}

// BroadcastPresence notifies the user's interested parties about an
// online/offline transition. Parties without live connections are skipped.
func (b *Broadcaster) BroadcastPresence(ctx context.Context, userID int64, status string) {
	parties, err := b.contacts.InterestedParties(ctx, userID)
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", userID).Msg("interested parties lookup failed")
		return
	}

	ev := &Event{
		Kind:   EventPresenceChange,
		UserID: userID,
		Status: status,
		At:     time.Now(),
	}
	for _, party := range parties {
		if party == userID {
			continue
		}
		if _, err := b.sessions.Send(party, ev); err != nil && err != ErrNoConnections {
			b.log.Warn().Err(err).Int64("user_id", party).Msg("presence delivery failed")
		}
	}
}

// userOnline is the registry hook for a user's first connection.
func (b *Broadcaster) userOnline(userID int64) {
	b.log.Info().Int64("user_id", userID).Msg("user online")
	b.BroadcastPresence(context.Background(), userID, PresenceOnline)
}

// userOffline is the registry hook for a user's last connection going away.
// It purges room presence and typing state, emits typing-stopped for any
// active flags, then broadcasts the offline transition.
func (b *Broadcaster) userOffline(userID int64) {
	typingRooms := b.rooms.PurgeUser(userID)
	for _, roomID := range typingRooms {
		b.cancelTypingExpiry(userID, roomID)
		b.fanTyping(userID, roomID, false)
	}

	b.log.Info().Int64("user_id", userID).Msg("user offline")
	b.BroadcastPresence(context.Background(), userID, PresenceOffline)
}

// typingCleared emits a typing-stopped event after the flag was already
// removed from the index (room leave path).
func (b *Broadcaster) typingCleared(userID, roomID int64) {
	b.cancelTypingExpiry(userID, roomID)
	b.fanTyping(userID, roomID, false)
}

// fanTyping delivers the typing state to every present member except the
// typer. The member snapshot is taken outside any lock held during delivery.
func (b *Broadcaster) fanTyping(userID, roomID int64, isTyping bool) {
	ev := &Event{
		Kind:     EventTyping,
		RoomID:   roomID,
		UserID:   userID,
		IsTyping: isTyping,
		At:       time.Now(),
	}
	for _, member := range b.rooms.Members(roomID) {
		if member == userID {
			continue
		}
		if _, err := b.sessions.Send(member, ev); err != nil && err != ErrNoConnections {
			b.log.Warn().Err(err).Int64("user_id", member).Int64("room_id", roomID).Msg("typing delivery failed")
		}
	}
}

func (b *Broadcaster) armTypingExpiry(userID, roomID int64) {
	if b.typingTTL <= 0 {
		return
	}
	key := typingKey{userID: userID, roomID: roomID}

	b.timerMu.Lock()
	defer b.timerMu.Unlock()
	if t, ok := b.timers[key]; ok {
		t.Reset(b.typingTTL)
		return
	}
	b.timers[key] = time.AfterFunc(b.typingTTL, func() {
		b.expireTyping(userID, roomID)
	})
}

func (b *Broadcaster) cancelTypingExpiry(userID, roomID int64) {
	if b.typingTTL <= 0 {
		return
	}
	key := typingKey{userID: userID, roomID: roomID}

	b.timerMu.Lock()
	defer b.timerMu.Unlock()
	if t, ok := b.timers[key]; ok {
		t.Stop()
		delete(b.timers, key)
	}
}

func (b *Broadcaster) expireTyping(userID, roomID int64) {
	b.timerMu.Lock()
	delete(b.timers, typingKey{userID: userID, roomID: roomID})
	b.timerMu.Unlock()

	if !b.rooms.isTyping(userID, roomID) {
		return
	}
	b.rooms.setTyping(userID, roomID, false)
	b.log.Debug().Int64("user_id", userID).Int64("room_id", roomID).Msg("typing flag expired")
	b.fanTyping(userID, roomID, false)
}
