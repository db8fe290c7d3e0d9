package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chatlink/chatlink-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

const userColumns = `id, username, display_name, password_hash, is_guest, COALESCE(session_id, ''), created_at`

func scanUser(row interface{ Scan(...any) error }) (*store.User, error) {
	var user store.User
	if err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash, &user.IsGuest, &user.SessionID, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, displayName, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, display_name, password_hash, is_guest)
		VALUES (?, ?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, displayName, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a temporary guest user with session ID.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		INSERT INTO users (username, display_name, password_hash, is_guest, session_id)
		VALUES (?, ?, '', 1, ?)
	`
	guestUsername := "guest_" + sessionID[:8]

	result, err := s.db.ExecContext(ctx, query, guestUsername, guestUsername, sessionID)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a registered user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? AND is_guest = 0`, username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

// UpdateUserProfile updates the user's display name.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id int64, displayName string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET display_name = ? WHERE id = ?`, displayName, id)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// SearchUsers searches registered users by username or display name
// substring, excluding excludeID from the results.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string, excludeID int64) ([]*store.User, error) {
	sqlQuery := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (username LIKE ? OR display_name LIKE ?) AND is_guest = 0 AND id != ?
		ORDER BY username
		LIMIT 20
	`
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, sqlQuery, pattern, pattern, excludeID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// ==== RoomStore implementation ====

// CreateRoom creates a new room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string, roomType store.RoomType, ownerID *int64) (*store.Room, error) {
	query := `
		INSERT INTO rooms (name, type, owner_id)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, name, roomType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetRoomByID(ctx, id)
}

// CreateDirectRoom creates a direct message room between two users,
// deduplicated via directKey, with both users added as members.
func (s *SQLiteStore) CreateDirectRoom(ctx context.Context, directKey string, user1ID, user2ID int64) (*store.Room, error) {
	existing, err := s.getRoomByDirectKey(ctx, directKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO rooms (name, type, direct_key)
		VALUES (?, 'direct', ?)
	`, directKey, directKey)
	if err != nil {
		return nil, fmt.Errorf("insert direct room: %w", err)
	}

	roomID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	for _, userID := range []int64{user1ID, user2ID} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO room_members (user_id, room_id) VALUES (?, ?)
		`, userID, roomID); err != nil {
			return nil, fmt.Errorf("insert direct member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit direct room: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

const roomColumns = `id, name, type, owner_id, direct_key, last_message_at, created_at`

func scanRoom(row interface{ Scan(...any) error }) (*store.Room, error) {
	var room store.Room
	var ownerID sql.NullInt64
	var directKey sql.NullString
	var lastMessageAt sql.NullTime
	if err := row.Scan(&room.ID, &room.Name, &room.Type, &ownerID, &directKey, &lastMessageAt, &room.CreatedAt); err != nil {
		return nil, err
	}
	if ownerID.Valid {
		room.OwnerID = &ownerID.Int64
	}
	if directKey.Valid {
		room.DirectKey = &directKey.String
	}
	if lastMessageAt.Valid {
		room.LastMessageAt = &lastMessageAt.Time
	}
	return &room, nil
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return room, nil
}

func (s *SQLiteStore) getRoomByDirectKey(ctx context.Context, directKey string) (*store.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE direct_key = ?`, directKey)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("direct room %q: %w", directKey, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query direct room: %w", err)
	}
	return room, nil
}

// ListRooms lists all rooms accessible to a user: public rooms plus rooms
// the user is a member or owner of.
func (s *SQLiteStore) ListRooms(ctx context.Context, userID int64) ([]*store.Room, error) {
	query := `
		SELECT DISTINCT r.id, r.name, r.type, r.owner_id, r.direct_key, r.last_message_at, r.created_at
		FROM rooms r
		LEFT JOIN room_members rm ON r.id = rm.room_id
		WHERE r.type = 'public'
		   OR rm.user_id = ?
		   OR r.owner_id = ?
		ORDER BY r.last_message_at DESC, r.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

// RenameRoom changes the room's name.
func (s *SQLiteStore) RenameRoom(ctx context.Context, roomID int64, name string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE rooms SET name = ? WHERE id = ?`, name, roomID)
	if err != nil {
		return fmt.Errorf("rename room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("room %d: %w", roomID, store.ErrNotFound)
	}
	return nil
}

// AddMember adds a user to a room. Adding an existing member is a no-op.
func (s *SQLiteStore) AddMember(ctx context.Context, userID, roomID int64) error {
	query := `
		INSERT INTO room_members (user_id, room_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, room_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, userID, roomID); err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a room.
func (s *SQLiteStore) RemoveMember(ctx context.Context, userID, roomID int64) error {
	query := `DELETE FROM room_members WHERE user_id = ? AND room_id = ?`
	if _, err := s.db.ExecContext(ctx, query, userID, roomID); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// IsMember checks if user is a member of the room.
func (s *SQLiteStore) IsMember(ctx context.Context, userID, roomID int64) (bool, error) {
	query := `SELECT 1 FROM room_members WHERE user_id = ? AND room_id = ?`
	var one int
	err := s.db.QueryRowContext(ctx, query, userID, roomID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query member: %w", err)
	}
	return true, nil
}

// ListMembers lists all member user IDs of a room.
func (s *SQLiteStore) ListMembers(ctx context.Context, roomID int64) ([]int64, error) {
	query := `SELECT user_id FROM room_members WHERE room_id = ? ORDER BY joined_at`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// TouchRoomActivity updates the room's last-message marker.
func (s *SQLiteStore) TouchRoomActivity(ctx context.Context, roomID int64, at time.Time) error {
	query := `UPDATE rooms SET last_message_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, at.UTC(), roomID); err != nil {
		return fmt.Errorf("touch room activity: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and fills in its canonical ID and server
// timestamp.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (room_id, user_id, body, reply_to_id)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.RoomID, msg.UserID, msg.Body, msg.ReplyToID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	var createdAt time.Time
	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, id).Scan(&createdAt); err != nil {
		return fmt.Errorf("query message timestamp: %w", err)
	}

	msg.ID = id
	msg.CreatedAt = createdAt
	return nil
}

const messageColumns = `id, room_id, user_id, body, reply_to_id, is_edited, is_deleted, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*store.Message, error) {
	var msg store.Message
	var replyTo sql.NullInt64
	if err := row.Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Body, &replyTo, &msg.Edited, &msg.Deleted, &msg.CreatedAt); err != nil {
		return nil, err
	}
	if replyTo.Valid {
		msg.ReplyToID = &replyTo.Int64
	}
	return &msg, nil
}

// GetRoomMessage retrieves a non-deleted message scoped to a room.
func (s *SQLiteStore) GetRoomMessage(ctx context.Context, messageID, roomID int64) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ? AND room_id = ? AND is_deleted = 0`
	row := s.db.QueryRowContext(ctx, query, messageID, roomID)
	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d in room %d: %w", messageID, roomID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// ListMessages retrieves messages from a room, newest first, up to limit.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*store.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE room_id = ? AND is_deleted = 0`
	args := []any{roomID}
	if beforeID != nil {
		query += ` AND id < ?`
		args = append(args, *beforeID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// DeleteMessage soft-deletes a message owned by userID.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, messageID, userID int64) error {
	query := `UPDATE messages SET is_deleted = 1 WHERE id = ? AND user_id = ?`
	result, err := s.db.ExecContext(ctx, query, messageID, userID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %d owned by %d: %w", messageID, userID, store.ErrNotFound)
	}
	return nil
}

// EditMessage replaces the body of a message owned by userID and marks it
// edited.
func (s *SQLiteStore) EditMessage(ctx context.Context, messageID, userID int64, body string) error {
	query := `UPDATE messages SET body = ?, is_edited = 1 WHERE id = ? AND user_id = ? AND is_deleted = 0`
	result, err := s.db.ExecContext(ctx, query, body, messageID, userID)
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %d owned by %d: %w", messageID, userID, store.ErrNotFound)
	}
	return nil
}

// ToggleReaction adds the user's emoji reaction, or removes it when the same
// reaction already exists. Reports whether the reaction is present afterwards.
func (s *SQLiteStore) ToggleReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM message_reactions
		WHERE message_id = ? AND user_id = ? AND emoji = ?
	`, messageID, userID, emoji).Scan(&id)
	switch {
	case err == nil:
		if _, err := s.db.ExecContext(ctx, `DELETE FROM message_reactions WHERE id = ?`, id); err != nil {
			return false, fmt.Errorf("delete reaction: %w", err)
		}
		return false, nil
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO message_reactions (message_id, user_id, emoji) VALUES (?, ?, ?)
		`, messageID, userID, emoji); err != nil {
			return false, fmt.Errorf("insert reaction: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("query reaction: %w", err)
	}
}

// ListReactions lists all reactions on a message.
func (s *SQLiteStore) ListReactions(ctx context.Context, messageID int64) ([]*store.Reaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, user_id, emoji, created_at
		FROM message_reactions
		WHERE message_id = ?
		ORDER BY id
	`, messageID)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	var reactions []*store.Reaction
	for rows.Next() {
		var r store.Reaction
		if err := rows.Scan(&r.ID, &r.MessageID, &r.UserID, &r.Emoji, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reactions = append(reactions, &r)
	}

	return reactions, rows.Err()
}

// ==== FriendStore implementation ====

// CreateFriendRequest creates a new friend request (pending status).
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	query := `
		INSERT INTO friends (user_id, friend_id, status)
		VALUES (?, ?, 'pending')
	`
	result, err := s.db.ExecContext(ctx, query, userID, friendID)
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friends WHERE id = ?
	`, id)

	var f store.Friend
	if err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, fmt.Errorf("query friend request: %w", err)
	}
	return &f, nil
}

// UpdateFriendStatus updates the status of a friendship.
func (s *SQLiteStore) UpdateFriendStatus(ctx context.Context, userID, friendID int64, status store.FriendStatus) error {
	query := `
		UPDATE friends
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`
	result, err := s.db.ExecContext(ctx, query, status, userID, friendID, friendID, userID)
	if err != nil {
		return fmt.Errorf("update friend status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("friendship %d/%d: %w", userID, friendID, store.ErrNotFound)
	}
	return nil
}

// GetFriendship retrieves a friendship between two users (either direction).
func (s *SQLiteStore) GetFriendship(ctx context.Context, userID, friendID int64) (*store.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`
	row := s.db.QueryRowContext(ctx, query, userID, friendID, friendID, userID)

	var f store.Friend
	if err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("friendship %d/%d: %w", userID, friendID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query friendship: %w", err)
	}
	return &f, nil
}

// ListFriends lists friendships for a user, optionally filtered by status.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID int64, status *store.FriendStatus) ([]*store.Friend, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friends
		WHERE (user_id = ? OR friend_id = ?)
	`
	args := []any{userID, userID}
	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	var friends []*store.Friend
	for rows.Next() {
		var f store.Friend
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, &f)
	}

	return friends, rows.Err()
}

// ListFriendIDs returns the IDs of users with an accepted friendship.
func (s *SQLiteStore) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT CASE WHEN user_id = ? THEN friend_id ELSE user_id END
		FROM friends
		WHERE (user_id = ? OR friend_id = ?) AND status = 'accepted'
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query friend ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// DeleteFriendship removes a friendship record.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, userID, friendID int64) error {
	query := `
		DELETE FROM friends
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)
	`
	if _, err := s.db.ExecContext(ctx, query, userID, friendID, friendID, userID); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}
