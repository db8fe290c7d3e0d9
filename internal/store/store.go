package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	IsGuest      bool
	SessionID    string // guest session tracking
	CreatedAt    time.Time
}

// RoomType defines different types of rooms.
type RoomType string

const (
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
	RoomTypeDirect  RoomType = "direct"
)

// Room represents a chat room.
type Room struct {
	ID            int64
	Name          string
	Type          RoomType
	OwnerID       *int64  // nil for public rooms
	DirectKey     *string // for direct rooms: "dm:{minUserID}:{maxUserID}"
	LastMessageAt *time.Time
	CreatedAt     time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID        int64
	RoomID    int64
	UserID    int64
	Body      string
	ReplyToID *int64
	Edited    bool
	Deleted   bool
	CreatedAt time.Time
}

// Reaction represents an emoji reaction attached to a message.
type Reaction struct {
	ID        int64
	MessageID int64
	UserID    int64
	Emoji     string
	CreatedAt time.Time
}

// RoomMember represents persisted room membership.
type RoomMember struct {
	UserID   int64
	RoomID   int64
	JoinedAt time.Time
}

// FriendStatus defines friend relationship status.
type FriendStatus string

const (
	FriendStatusPending  FriendStatus = "pending"
	FriendStatusAccepted FriendStatus = "accepted"
	FriendStatusBlocked  FriendStatus = "blocked"
)

// Friend represents a friend relationship.
type Friend struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    FriendStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, displayName, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest user with session ID.
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a registered user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// UpdateUserProfile updates the user's display name.
	UpdateUserProfile(ctx context.Context, id int64, displayName string) error

	// SearchUsers searches registered users by username or display name
	// substring, excluding excludeID from the results.
	SearchUsers(ctx context.Context, query string, excludeID int64) ([]*User, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new room.
	CreateRoom(ctx context.Context, name string, roomType RoomType, ownerID *int64) (*Room, error)

	// CreateDirectRoom creates a direct message room between two users,
	// deduplicated via directKey, with both users added as members.
	CreateDirectRoom(ctx context.Context, directKey string, user1ID, user2ID int64) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// ListRooms lists all rooms accessible to a user.
	ListRooms(ctx context.Context, userID int64) ([]*Room, error)

	// RenameRoom changes the room's name.
	RenameRoom(ctx context.Context, roomID int64, name string) error

	// AddMember adds a user to a room.
	AddMember(ctx context.Context, userID, roomID int64) error

	// RemoveMember removes a user from a room.
	RemoveMember(ctx context.Context, userID, roomID int64) error

	// IsMember checks if user is a member of the room.
	IsMember(ctx context.Context, userID, roomID int64) (bool, error)

	// ListMembers lists all member user IDs of a room.
	ListMembers(ctx context.Context, roomID int64) ([]int64, error)

	// TouchRoomActivity updates the room's last-message marker.
	TouchRoomActivity(ctx context.Context, roomID int64, at time.Time) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its canonical ID and
	// server timestamp.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetRoomMessage retrieves a non-deleted message scoped to a room.
	GetRoomMessage(ctx context.Context, messageID, roomID int64) (*Message, error)

	// ListMessages retrieves messages from a room, newest first, up to
	// limit. If beforeID is set only older messages are returned.
	ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*Message, error)

	// EditMessage replaces the body of a message owned by userID and
	// marks it edited.
	EditMessage(ctx context.Context, messageID, userID int64, body string) error

	// DeleteMessage soft-deletes a message owned by userID.
	DeleteMessage(ctx context.Context, messageID, userID int64) error

	// ToggleReaction adds the user's emoji reaction to a message, or
	// removes it when the same reaction already exists. Reports whether
	// the reaction is present afterwards.
	ToggleReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error)

	// ListReactions lists all reactions on a message.
	ListReactions(ctx context.Context, messageID int64) ([]*Reaction, error)
}

// FriendStore handles friend persistence.
type FriendStore interface {
	// CreateFriendRequest creates a new friend request (pending status).
	CreateFriendRequest(ctx context.Context, userID, friendID int64) (*Friend, error)

	// UpdateFriendStatus updates the status of a friendship.
	UpdateFriendStatus(ctx context.Context, userID, friendID int64, status FriendStatus) error

	// GetFriendship retrieves a friendship between two users (either direction).
	GetFriendship(ctx context.Context, userID, friendID int64) (*Friend, error)

	// ListFriends lists friendships for a user, optionally filtered by status.
	ListFriends(ctx context.Context, userID int64, status *FriendStatus) ([]*Friend, error)

	// ListFriendIDs returns the IDs of users with an accepted friendship.
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)

	// DeleteFriendship removes a friendship record.
	DeleteFriendship(ctx context.Context, userID, friendID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore
	FriendStore

	// Close closes the underlying database connection.
	Close() error
}
