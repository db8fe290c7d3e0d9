package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTypingBroadcastReachesOtherMembers(t *testing.T) {
	gw := newFakeGateway()
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(1, 100)
	core.Rooms.Join(2, 100)

	core.Broadcaster.SetTyping(1, 100, true)

	ev := nextEvent(t, connB)
	require.Equal(t, EventTyping, ev.Kind)
	require.Equal(t, int64(100), ev.RoomID)
	require.Equal(t, int64(1), ev.UserID)
	require.True(t, ev.IsTyping)

	// The typer does not hear their own indicator
	noEvent(t, connA)

	core.Broadcaster.SetTyping(1, 100, false)
	ev = nextEvent(t, connB)
	require.Equal(t, EventTyping, ev.Kind)
	require.False(t, ev.IsTyping)
}

func TestTypingIgnoredOutsideRoom(t *testing.T) {
	gw := newFakeGateway()
	core := newTestCore(t, gw, Options{})

	_, _ = openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(2, 100)

	// User 1 never joined room 100
	core.Broadcaster.SetTyping(1, 100, true)

	require.Empty(t, core.Rooms.TypingUsers(100))
	noEvent(t, connB)
}

func TestRedundantTypingStillBroadcasts(t *testing.T) {
	gw := newFakeGateway()
	core := newTestCore(t, gw, Options{})

	_, _ = openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(1, 100)
	core.Rooms.Join(2, 100)

	core.Broadcaster.SetTyping(1, 100, true)
	core.Broadcaster.SetTyping(1, 100, true)

	first := nextEvent(t, connB)
	second := nextEvent(t, connB)
	require.True(t, first.IsTyping)
	require.True(t, second.IsTyping)
}

func TestTypingExpiresAfterTTL(t *testing.T) {
	gw := newFakeGateway()
	core := newTestCore(t, gw, Options{TypingTTL: 50 * time.Millisecond})

	_, _ = openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(1, 100)
	core.Rooms.Join(2, 100)

	core.Broadcaster.SetTyping(1, 100, true)

	ev := nextEvent(t, connB)
	require.True(t, ev.IsTyping)

	// The flag expires without an explicit stop
	ev = nextEvent(t, connB)
	require.Equal(t, EventTyping, ev.Kind)
	require.False(t, ev.IsTyping)
	require.Empty(t, core.Rooms.TypingUsers(100))
}

func TestPresenceBroadcastToContacts(t *testing.T) {
	gw := newFakeGateway()
	gw.setFriends(1, 2, 3) // 3 is offline throughout
	core := newTestCore(t, gw, Options{})

	connB, _ := openSession(t, core, 2)

	// User 1 comes online; their contact with a live connection hears it
	conn := NewConn(1, core.Sessions.QueueSize())
	session := core.Dispatcher.Open(conn)

	ev := nextEvent(t, connB)
	require.Equal(t, EventPresenceChange, ev.Kind)
	require.Equal(t, int64(1), ev.UserID)
	require.Equal(t, PresenceOnline, ev.Status)

	// A second connection for the same user is not a new transition
	conn2 := NewConn(1, core.Sessions.QueueSize())
	session2 := core.Dispatcher.Open(conn2)
	noEvent(t, connB)

	// Only the last disconnect flips the user offline
	session2.Close()
	noEvent(t, connB)
	session.Close()

	ev = nextEvent(t, connB)
	require.Equal(t, EventPresenceChange, ev.Kind)
	require.Equal(t, PresenceOffline, ev.Status)
}

func TestDisconnectClearsTypingBeforeGoingOffline(t *testing.T) {
	gw := newFakeGateway()
	gw.setFriends(1, 2)
	core := newTestCore(t, gw, Options{})

	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(2, 100)

	conn := NewConn(1, core.Sessions.QueueSize())
	session := core.Dispatcher.Open(conn)

	ev := nextEvent(t, connB) // online
	require.Equal(t, PresenceOnline, ev.Status)

	core.Rooms.Join(1, 100)
	core.Broadcaster.SetTyping(1, 100, true)
	ev = nextEvent(t, connB)
	require.True(t, ev.IsTyping)

	session.Close()

	// Remaining members see typing stop before the offline transition
	ev = nextEvent(t, connB)
	require.Equal(t, EventTyping, ev.Kind)
	require.False(t, ev.IsTyping)

	ev = nextEvent(t, connB)
	require.Equal(t, EventPresenceChange, ev.Kind)
	require.Equal(t, PresenceOffline, ev.Status)

	require.Empty(t, core.Rooms.Rooms(1))
	require.Empty(t, core.Rooms.TypingUsers(100))
}

func TestBroadcastPresenceSkipsSelf(t *testing.T) {
	gw := newFakeGateway()
	gw.setFriends(1, 1, 2) // contact list includes the user themselves
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)

	core.Broadcaster.BroadcastPresence(context.Background(), 1, PresenceOnline)

	ev := nextEvent(t, connB)
	require.Equal(t, EventPresenceChange, ev.Kind)
	noEvent(t, connA)
}
