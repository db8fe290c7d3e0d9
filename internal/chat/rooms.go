package chat

import (
	"sync"

	"github.com/rs/zerolog"
)

// RoomIndex tracks which users are present in which rooms for live delivery,
// plus the per-room typing sets. Presence here is this process's view only:
// a user enters on an explicit join and never implicitly. Persisted room
// membership lives in the store and is a separate concern.
//
// Invariants held under the index lock:
//   - a user appears in a room's presence set only while they have a live
//     connection (joins without one are no-ops, disconnects purge);
//   - the typing set of a room is always a subset of its presence set.
type RoomIndex struct {
	log      *zerolog.Logger
	sessions *SessionRegistry

	mu       sync.Mutex
	presence map[int64]map[int64]struct{} // room -> user set
	typing   map[int64]map[int64]struct{} // room -> user set
}

// NewRoomIndex builds an empty index on top of the session registry.
func NewRoomIndex(sessions *SessionRegistry, logger *zerolog.Logger) *RoomIndex {
	return &RoomIndex{
		log:      logger,
		sessions: sessions,
		presence: make(map[int64]map[int64]struct{}),
		typing:   make(map[int64]map[int64]struct{}),
	}
}

// Join adds the user to the room's presence set. Idempotent. A user with no
// live connection cannot join; the call is a no-op then.
func (ri *RoomIndex) Join(userID, roomID int64) {
	if !ri.sessions.HasConnections(userID) {
		ri.log.Debug().Int64("user_id", userID).Int64("room_id", roomID).Msg("join ignored, no live connection")
		return
	}

	ri.mu.Lock()
	set, ok := ri.presence[roomID]
	if !ok {
		set = make(map[int64]struct{})
		ri.presence[roomID] = set
	}
	set[userID] = struct{}{}
	ri.mu.Unlock()

	ri.log.Debug().Int64("user_id", userID).Int64("room_id", roomID).Msg("joined room")
}

// Leave removes the user from the room's presence set and clears any typing
// flag for that room. Idempotent. It reports whether a typing flag was
// active so the caller can emit the typing-stopped event.
func (ri *RoomIndex) Leave(userID, roomID int64) (wasTyping bool) {
	ri.mu.Lock()
	if set, ok := ri.presence[roomID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(ri.presence, roomID)
		}
	}
	if set, ok := ri.typing[roomID]; ok {
		if _, typing := set[userID]; typing {
			wasTyping = true
			delete(set, userID)
			if len(set) == 0 {
				delete(ri.typing, roomID)
			}
		}
	}
	ri.mu.Unlock()

	ri.log.Debug().Int64("user_id", userID).Int64("room_id", roomID).Msg("left room")
	return wasTyping
}

// Members returns a snapshot of user identities currently present in the room.
func (ri *RoomIndex) Members(roomID int64) []int64 {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	set := ri.presence[roomID]
	members := make([]int64, 0, len(set))
	for id := range set {
		members = append(members, id)
	}
	return members
}

// InRoom reports whether the user is present in the room.
func (ri *RoomIndex) InRoom(userID, roomID int64) bool {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	_, ok := ri.presence[roomID][userID]
	return ok
}

// TypingUsers returns a snapshot of users currently flagged as typing.
func (ri *RoomIndex) TypingUsers(roomID int64) []int64 {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	set := ri.typing[roomID]
	users := make([]int64, 0, len(set))
	for id := range set {
		users = append(users, id)
	}
	return users
}

// setTyping flips the typing flag for a user in a room. The flag can only be
// set while the user is present in the room. It reports whether the user is
// present (and the update was applied).
func (ri *RoomIndex) setTyping(userID, roomID int64, isTyping bool) bool {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	if _, present := ri.presence[roomID][userID]; !present {
		return false
	}

	if isTyping {
		set, ok := ri.typing[roomID]
		if !ok {
			set = make(map[int64]struct{})
			ri.typing[roomID] = set
		}
		set[userID] = struct{}{}
		return true
	}

	if set, ok := ri.typing[roomID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(ri.typing, roomID)
		}
	}
	return true
}

// isTyping reports whether the user's typing flag is set for the room.
func (ri *RoomIndex) isTyping(userID, roomID int64) bool {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	_, ok := ri.typing[roomID][userID]
	return ok
}

// PurgeUser removes the user from every room's presence and typing set.
// Called on full disconnect. It returns the rooms where a typing flag was
// active so typing-stopped events can be emitted to the remaining members.
func (ri *RoomIndex) PurgeUser(userID int64) (typingRooms []int64) {
	ri.mu.Lock()
	for roomID, set := range ri.typing {
		if _, ok := set[userID]; ok {
			typingRooms = append(typingRooms, roomID)
			delete(set, userID)
			if len(set) == 0 {
				delete(ri.typing, roomID)
			}
		}
	}
	for roomID, set := range ri.presence {
		if _, ok := set[userID]; ok {
			delete(set, userID)
			if len(set) == 0 {
				delete(ri.presence, roomID)
			}
		}
	}
	ri.mu.Unlock()

	ri.log.Debug().Int64("user_id", userID).Msg("purged from all rooms")
	return typingRooms
}

// Rooms returns a snapshot of rooms the user is currently present in.
func (ri *RoomIndex) Rooms(userID int64) []int64 {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	var rooms []int64
	for roomID, set := range ri.presence {
		if _, ok := set[userID]; ok {
			rooms = append(rooms, roomID)
		}
	}
	return rooms
}
