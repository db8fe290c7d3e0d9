package chat

import "time"

// Message is the domain model for a chat message after persistence.
// ID and CreatedAt are canonical values assigned by the store.
type Message struct {
	ID        int64
	RoomID    int64
	SenderID  int64
	Body      string
	ReplyToID *int64
	CreatedAt time.Time
}
