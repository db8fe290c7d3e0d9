package chat

import (
	"sync"

	"github.com/rs/zerolog"
)

// DeliveryResult reports how a per-user send went. A user with three open
// tabs and one dead socket yields Attempted=3, Delivered=2; the dead socket
// is dropped without failing the call.
type DeliveryResult struct {
	Attempted int
	Delivered int
}

// SessionRegistry maps a user identity to the set of currently open
// connections. It owns every Conn for its lifetime: connections enter through
// Register and leave through Unregister or a failed delivery, nothing else.
type SessionRegistry struct {
	log *zerolog.Logger

	queueSize int

	mu    sync.Mutex
	conns map[int64]map[*Conn]struct{}

	onOnline  func(userID int64)
	onOffline func(userID int64)
}

// NewSessionRegistry builds an empty registry. queueSize is passed through to
// connections created by the transport layer via QueueSize.
func NewSessionRegistry(queueSize int, logger *zerolog.Logger) *SessionRegistry {
	return &SessionRegistry{
		log:       logger,
		queueSize: queueSize,
		conns:     make(map[int64]map[*Conn]struct{}),
	}
}

// QueueSize returns the configured per-connection outbound queue size.
func (r *SessionRegistry) QueueSize() int { return r.queueSize }

// SetPresenceHooks installs the callbacks fired on a user's first connection
// and after their last connection is gone. Hooks run outside the registry
// lock and may call back into the registry.
func (r *SessionRegistry) SetPresenceHooks(online, offline func(userID int64)) {
	r.onOnline = online
	r.onOffline = offline
}

// Register adds a connection to the user's live set. The first connection for
// a user triggers the presence-online hook.
func (r *SessionRegistry) Register(userID int64, c *Conn) {
	r.mu.Lock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
	first := len(set) == 1
	r.mu.Unlock()

	r.log.Debug().Int64("user_id", userID).Str("conn_id", c.ID()).Bool("first", first).Msg("connection registered")

	if first && r.onOnline != nil {
		r.onOnline(userID)
	}
}

// Unregister removes a connection and closes it. When the user's live set
// becomes empty the presence-offline hook runs, which is responsible for
// purging room presence and typing state. Safe to call for a connection that
// was already dropped.
func (r *SessionRegistry) Unregister(userID int64, c *Conn) {
	r.mu.Lock()
	set, ok := r.conns[userID]
	if !ok {
		r.mu.Unlock()
		c.Close()
		return
	}
	if _, tracked := set[c]; !tracked {
		r.mu.Unlock()
		c.Close()
		return
	}
	delete(set, c)
	last := len(set) == 0
	if last {
		delete(r.conns, userID)
	}
	r.mu.Unlock()

	c.Close()
	r.log.Debug().Int64("user_id", userID).Str("conn_id", c.ID()).Bool("last", last).Msg("connection unregistered")

	if last && r.onOffline != nil {
		r.onOffline(userID)
	}
}

// Send delivers an event to every live connection of the user. Delivery to
// each connection is independent: a connection that cannot accept the event
// is unregistered and does not block or fail its siblings. The call errors
// only when the user had zero connections.
func (r *SessionRegistry) Send(userID int64, ev *Event) (DeliveryResult, error) {
	r.mu.Lock()
	set := r.conns[userID]
	targets := make([]*Conn, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		return DeliveryResult{}, ErrNoConnections
	}

	res := DeliveryResult{Attempted: len(targets)}
	var dead []*Conn
	for _, c := range targets {
		if c.Deliver(ev) {
			res.Delivered++
		} else {
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		r.log.Warn().Int64("user_id", userID).Str("conn_id", c.ID()).Msg("dropping dead connection after failed delivery")
		r.Unregister(userID, c)
	}

	return res, nil
}

// HasConnections reports whether the user has at least one live connection.
func (r *SessionRegistry) HasConnections(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID]) > 0
}

// ConnectionCount returns the number of live connections for the user.
func (r *SessionRegistry) ConnectionCount(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID])
}

// OnlineUsers returns a snapshot of user identities with live connections.
func (r *SessionRegistry) OnlineUsers() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]int64, 0, len(r.conns))
	for id := range r.conns {
		users = append(users, id)
	}
	return users
}
