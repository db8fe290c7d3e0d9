package store

import (
	"context"
	"errors"
	"time"

	"github.com/chatlink/chatlink-server/internal/chat"
)

// ChatGateway adapts the store to the chat core's collaborator interfaces:
// authorization, message persistence and the presence contact lookup. The
// core stays free of storage types.
type ChatGateway struct {
	store Store
}

// NewChatGateway wraps a store for the chat core.
func NewChatGateway(st Store) *ChatGateway {
	return &ChatGateway{store: st}
}

// AuthorizeSend reports whether the user is a persisted member of the room.
func (g *ChatGateway) AuthorizeSend(ctx context.Context, userID, roomID int64) (bool, error) {
	return g.store.IsMember(ctx, userID, roomID)
}

// ResolveReplyTarget reports whether the message exists in the room and is
// not deleted.
func (g *ChatGateway) ResolveReplyTarget(ctx context.Context, messageID, roomID int64) (bool, error) {
	_, err := g.store.GetRoomMessage(ctx, messageID, roomID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PersistMessage durably appends the message and returns the canonical id
// and server timestamp assigned by the store.
func (g *ChatGateway) PersistMessage(ctx context.Context, roomID, senderID int64, body string, replyToID *int64) (*chat.Message, error) {
	msg := &Message{
		RoomID:    roomID,
		UserID:    senderID,
		Body:      body,
		ReplyToID: replyToID,
	}
	if err := g.store.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}
	return &chat.Message{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		SenderID:  msg.UserID,
		Body:      msg.Body,
		ReplyToID: msg.ReplyToID,
		CreatedAt: msg.CreatedAt,
	}, nil
}

// TouchRoomActivity updates the room's last-message marker.
func (g *ChatGateway) TouchRoomActivity(ctx context.Context, roomID int64, at time.Time) error {
	return g.store.TouchRoomActivity(ctx, roomID, at)
}

// InterestedParties returns the accepted friends of the user; they are the
// audience for the user's presence transitions.
func (g *ChatGateway) InterestedParties(ctx context.Context, userID int64) ([]int64, error) {
	return g.store.ListFriendIDs(ctx, userID)
}
