package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultQueueSize = 32

// Conn is the core-side handle for one transport connection. The transport
// layer drains Events and writes them to the socket; the core only ever
// enqueues. Enqueueing never blocks: a closed connection or a full queue
// counts as a delivery failure and the connection is dropped by the registry.
type Conn struct {
	id        string
	userID    int64
	createdAt time.Time

	mu         sync.Mutex
	lastActive time.Time
	events     chan *Event
	closed     bool
}

// NewConn builds a connection handle for the given user. queueSize bounds the
// outbound event queue; values <= 0 fall back to the default.
func NewConn(userID int64, queueSize int) *Conn {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	now := time.Now()
	return &Conn{
		id:         uuid.NewString(),
		userID:     userID,
		createdAt:  now,
		lastActive: now,
		events:     make(chan *Event, queueSize),
	}
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string { return c.id }

// UserID returns the owning user identity.
func (c *Conn) UserID() int64 { return c.userID }

// CreatedAt returns when the connection was accepted.
func (c *Conn) CreatedAt() time.Time { return c.createdAt }

// LastActive returns the time of the last inbound activity.
func (c *Conn) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Touch records inbound activity on the connection.
func (c *Conn) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Events exposes the outbound queue for the transport write loop. The channel
// is closed when the connection is closed.
func (c *Conn) Events() <-chan *Event { return c.events }

// Deliver enqueues an event without blocking. It reports false if the
// connection is closed or the queue is full (slow consumer).
func (c *Conn) Deliver(ev *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// Close marks the connection dead and closes the event queue. Safe to call
// more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
