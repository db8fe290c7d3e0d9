package chat

import "time"

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventNewMessage carries a freshly persisted message to room members.
	EventNewMessage EventKind = iota
	// EventAck confirms a sent message to its author, with the canonical id.
	EventAck
	// EventMessageStatus notifies room members about a message status change.
	EventMessageStatus
	// EventTyping notifies room members that a user started or stopped typing.
	EventTyping
	// EventPresenceChange notifies interested users about online/offline transitions.
	EventPresenceChange
	// EventError reports a failed operation to the originating connection.
	EventError
)

// Presence status values carried by EventPresenceChange.
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// MessageStatusRead is fanned out when a member reports a read receipt.
const MessageStatusRead = "read"

// Event is the outbound unit delivered to connections. It is transient and
// never persisted.
type Event struct {
	Kind      EventKind
	RoomID    int64
	UserID    int64 // subject: sender, typer, or user whose presence changed
	Message   *Message
	MessageID int64  // for EventMessageStatus
	Status    string // message status or presence status
	IsTyping  bool
	Err       *ChatError
	At        time.Time
}
