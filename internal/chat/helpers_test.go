package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeGateway implements the Authorizer, MessageGateway and ContactDirectory
// collaborators in memory so core tests never touch a database.
type fakeGateway struct {
	mu       sync.Mutex
	members  map[int64]map[int64]struct{} // room -> user set
	messages map[int64]*Message
	nextID   int64
	friends  map[int64][]int64
	touched  map[int64]time.Time

	authorizeErr error
	replyErr     error
	persistErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		members:  make(map[int64]map[int64]struct{}),
		messages: make(map[int64]*Message),
		friends:  make(map[int64][]int64),
		touched:  make(map[int64]time.Time),
	}
}

func (g *fakeGateway) addMember(userID, roomID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.members[roomID]
	if !ok {
		set = make(map[int64]struct{})
		g.members[roomID] = set
	}
	set[userID] = struct{}{}
}

func (g *fakeGateway) setFriends(userID int64, friendIDs ...int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.friends[userID] = friendIDs
}

func (g *fakeGateway) messageCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.messages)
}

func (g *fakeGateway) AuthorizeSend(ctx context.Context, userID, roomID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authorizeErr != nil {
		return false, g.authorizeErr
	}
	_, ok := g.members[roomID][userID]
	return ok, nil
}

func (g *fakeGateway) ResolveReplyTarget(ctx context.Context, messageID, roomID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.replyErr != nil {
		return false, g.replyErr
	}
	msg, ok := g.messages[messageID]
	return ok && msg.RoomID == roomID, nil
}

func (g *fakeGateway) PersistMessage(ctx context.Context, roomID, senderID int64, body string, replyToID *int64) (*Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.persistErr != nil {
		return nil, g.persistErr
	}
	g.nextID++
	msg := &Message{
		ID:        g.nextID,
		RoomID:    roomID,
		SenderID:  senderID,
		Body:      body,
		ReplyToID: replyToID,
		CreatedAt: time.Now(),
	}
	g.messages[msg.ID] = msg
	return msg, nil
}

func (g *fakeGateway) TouchRoomActivity(ctx context.Context, roomID int64, at time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.touched[roomID] = at
	return nil
}

func (g *fakeGateway) InterestedParties(ctx context.Context, userID int64) ([]int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.friends[userID], nil
}

func newTestCore(t *testing.T, gw *fakeGateway, opts Options) *Core {
	t.Helper()
	logger := zerolog.New(nil)
	return New(gw, gw, gw, opts, &logger)
}

// openSession opens a connection and session for the user.
func openSession(t *testing.T, core *Core, userID int64) (*Conn, *Session) {
	t.Helper()
	conn := NewConn(userID, core.Sessions.QueueSize())
	session := core.Dispatcher.Open(conn)
	t.Cleanup(session.Close)
	return conn, session
}

// nextEvent reads one event from the connection or fails the test.
func nextEvent(t *testing.T, conn *Conn) *Event {
	t.Helper()
	select {
	case ev, ok := <-conn.Events():
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

// noEvent asserts the connection receives nothing for a short window.
func noEvent(t *testing.T, conn *Conn) {
	t.Helper()
	select {
	case ev, ok := <-conn.Events():
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}
