package chat

import (
	"context"
	"time"
)

// Authorizer answers whether a user may post to a room right now. Backed by
// persisted room membership in the store.
type Authorizer interface {
	AuthorizeSend(ctx context.Context, userID, roomID int64) (bool, error)
}

// MessageGateway is the persistence collaborator for the fan-out engine.
type MessageGateway interface {
	// ResolveReplyTarget reports whether the message exists in the given
	// room and is not deleted.
	ResolveReplyTarget(ctx context.Context, messageID, roomID int64) (bool, error)

	// PersistMessage durably appends the message and returns it with the
	// canonical id and server timestamp.
	PersistMessage(ctx context.Context, roomID, senderID int64, body string, replyToID *int64) (*Message, error)

	// TouchRoomActivity updates the room's last-activity marker. Best
	// effort; failures are logged and never roll anything back.
	TouchRoomActivity(ctx context.Context, roomID int64, at time.Time) error
}

// ContactDirectory resolves who should be notified about a user's presence
// transitions. The core never queries relationship data itself.
type ContactDirectory interface {
	InterestedParties(ctx context.Context, userID int64) ([]int64, error)
}
