package chat

import (
	"time"

	"github.com/rs/zerolog"
)

// Options tune the core. Zero values select defaults.
type Options struct {
	// QueueSize bounds each connection's outbound event queue.
	QueueSize int
	// TypingTTL expires typing flags that are never explicitly cleared.
	// Zero disables expiry.
	TypingTTL time.Duration
}

// Core bundles the wired chat components. Construct one per process (or per
// test); there is no package-level instance.
type Core struct {
	Sessions    *SessionRegistry
	Rooms       *RoomIndex
	Broadcaster *Broadcaster
	Fanout      *Fanout
	Dispatcher  *Dispatcher
}

// New wires the session registry, room index, broadcaster, fan-out engine
// and dispatcher together, including the presence hooks that make a full
// disconnect purge room and typing state.
func New(authz Authorizer, gateway MessageGateway, contacts ContactDirectory, opts Options, logger *zerolog.Logger) *Core {
	sessions := NewSessionRegistry(opts.QueueSize, logger)
	rooms := NewRoomIndex(sessions, logger)
	broadcaster := NewBroadcaster(sessions, rooms, contacts, opts.TypingTTL, logger)
	fanout := NewFanout(sessions, rooms, authz, gateway, logger)

	sessions.SetPresenceHooks(broadcaster.userOnline, broadcaster.userOffline)

	return &Core{
		Sessions:    sessions,
		Rooms:       rooms,
		Broadcaster: broadcaster,
		Fanout:      fanout,
		Dispatcher:  NewDispatcher(sessions, rooms, broadcaster, fanout, logger),
	}
}
