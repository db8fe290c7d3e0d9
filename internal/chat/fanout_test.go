package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendPersistsThenBroadcasts(t *testing.T) {
	gw := newFakeGateway()
	gw.addMember(1, 100)
	gw.addMember(2, 100)
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(1, 100)
	core.Rooms.Join(2, 100)

	msg, cerr := core.Fanout.Send(context.Background(), 1, 100, "hello", nil)
	require.Nil(t, cerr)
	require.NotZero(t, msg.ID)
	require.Equal(t, "hello", msg.Body)

	// Sender gets exactly one ack carrying the canonical id
	ev := nextEvent(t, connA)
	require.Equal(t, EventAck, ev.Kind)
	require.Equal(t, msg.ID, ev.Message.ID)
	noEvent(t, connA)

	// The other member gets exactly one new_message
	ev = nextEvent(t, connB)
	require.Equal(t, EventNewMessage, ev.Kind)
	require.Equal(t, msg.ID, ev.Message.ID)
	require.Equal(t, int64(1), ev.Message.SenderID)
	noEvent(t, connB)

	// Room activity was touched with the message timestamp
	require.Equal(t, msg.CreatedAt, gw.touched[100])
}

func TestSendForbiddenLeavesNoTrace(t *testing.T) {
	gw := newFakeGateway()
	gw.addMember(2, 100)
	core := newTestCore(t, gw, Options{})

	_, _ = openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(2, 100)

	// User 1 is not a persisted member
	msg, cerr := core.Fanout.Send(context.Background(), 1, 100, "sneaky", nil)
	require.Nil(t, msg)
	require.Equal(t, ErrCodeForbidden, cerr.Code)

	require.Zero(t, gw.messageCount())
	noEvent(t, connB)
}

func TestSendReplyValidation(t *testing.T) {
	gw := newFakeGateway()
	gw.addMember(1, 100)
	gw.addMember(1, 200)
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	core.Rooms.Join(1, 100)

	orig, cerr := core.Fanout.Send(context.Background(), 1, 100, "original", nil)
	require.Nil(t, cerr)
	nextEvent(t, connA) // ack

	// Replying to a message that exists in the room works
	reply, cerr := core.Fanout.Send(context.Background(), 1, 100, "reply", &orig.ID)
	require.Nil(t, cerr)
	require.Equal(t, orig.ID, *reply.ReplyToID)
	nextEvent(t, connA) // ack

	// Reply target from another room is an invalid reference
	msg, cerr := core.Fanout.Send(context.Background(), 1, 200, "cross-room", &orig.ID)
	require.Nil(t, msg)
	require.Equal(t, ErrCodeInvalidReference, cerr.Code)

	// Reply target that never existed
	missing := int64(501)
	msg, cerr = core.Fanout.Send(context.Background(), 1, 100, "dangling", &missing)
	require.Nil(t, msg)
	require.Equal(t, ErrCodeInvalidReference, cerr.Code)

	// Failed sends broadcast nothing
	noEvent(t, connA)
	require.Equal(t, 2, gw.messageCount())
}

func TestSendAcksSenderBeforeLiveJoin(t *testing.T) {
	gw := newFakeGateway()
	gw.addMember(1, 100)
	gw.addMember(2, 100)
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(2, 100)
	// User 1 is a persisted member but never joined the live room

	msg, cerr := core.Fanout.Send(context.Background(), 1, 100, "hello", nil)
	require.Nil(t, cerr)

	// The sender still gets the confirmation
	ev := nextEvent(t, connA)
	require.Equal(t, EventAck, ev.Kind)
	require.Equal(t, msg.ID, ev.Message.ID)
	noEvent(t, connA)

	ev = nextEvent(t, connB)
	require.Equal(t, EventNewMessage, ev.Kind)
}

func TestSendStorageFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.addMember(1, 100)
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	core.Rooms.Join(1, 100)

	gw.persistErr = errors.New("disk full")
	msg, cerr := core.Fanout.Send(context.Background(), 1, 100, "doomed", nil)
	require.Nil(t, msg)
	require.Equal(t, ErrCodeStorageError, cerr.Code)
	noEvent(t, connA)
}

func TestSendAuthorizationFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.addMember(1, 100)
	core := newTestCore(t, gw, Options{})

	_, _ = openSession(t, core, 1)
	core.Rooms.Join(1, 100)

	gw.authorizeErr = errors.New("db gone")
	msg, cerr := core.Fanout.Send(context.Background(), 1, 100, "hello", nil)
	require.Nil(t, msg)
	require.Equal(t, ErrCodeStorageError, cerr.Code)
	require.Zero(t, gw.messageCount())
}

func TestSendSkipsAbsentMembers(t *testing.T) {
	gw := newFakeGateway()
	gw.addMember(1, 100)
	gw.addMember(2, 100)
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(1, 100)
	// User 2 is a persisted member but never joined the live room

	_, cerr := core.Fanout.Send(context.Background(), 1, 100, "hello", nil)
	require.Nil(t, cerr)

	nextEvent(t, connA) // ack
	noEvent(t, connB)
}

func TestBroadcastStatusExcludesReporter(t *testing.T) {
	gw := newFakeGateway()
	core := newTestCore(t, gw, Options{})

	connA, _ := openSession(t, core, 1)
	connB, _ := openSession(t, core, 2)
	core.Rooms.Join(1, 100)
	core.Rooms.Join(2, 100)

	core.Fanout.BroadcastStatus(100, 55, MessageStatusRead, 2)

	ev := nextEvent(t, connA)
	require.Equal(t, EventMessageStatus, ev.Kind)
	require.Equal(t, int64(55), ev.MessageID)
	require.Equal(t, int64(2), ev.UserID)
	require.Equal(t, MessageStatusRead, ev.Status)

	noEvent(t, connB)
}
