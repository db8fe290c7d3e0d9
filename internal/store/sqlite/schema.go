package sqlite

import "database/sql"

// schema is applied on open. Statements are idempotent so restarting the
// server against an existing database is safe.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	session_id    TEXT,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL UNIQUE,
	type            TEXT NOT NULL DEFAULT 'public',
	owner_id        INTEGER REFERENCES users(id),
	direct_key      TEXT UNIQUE,
	last_message_at DATETIME,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS room_members (
	user_id   INTEGER NOT NULL REFERENCES users(id),
	room_id   INTEGER NOT NULL REFERENCES rooms(id),
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, room_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id     INTEGER NOT NULL REFERENCES rooms(id),
	user_id     INTEGER NOT NULL REFERENCES users(id),
	body        TEXT NOT NULL,
	reply_to_id INTEGER REFERENCES messages(id),
	is_edited   BOOLEAN NOT NULL DEFAULT 0,
	is_deleted  BOOLEAN NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_room_id ON messages(room_id, id);

CREATE TABLE IF NOT EXISTS message_reactions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id INTEGER NOT NULL REFERENCES messages(id),
	user_id    INTEGER NOT NULL REFERENCES users(id),
	emoji      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (message_id, user_id, emoji)
);

CREATE TABLE IF NOT EXISTS friends (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	friend_id  INTEGER NOT NULL REFERENCES users(id),
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (user_id, friend_id)
);
`

func applySchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
