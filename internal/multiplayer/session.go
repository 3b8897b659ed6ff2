package multiplayer

import (
	"sync"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// SessionHandle is the transport-neutral interface for talking to a player.
// It lets rooms push events without depending on WebSocket or SSH.
type SessionHandle interface {
	// ID returns the identity of the connection.
	ID() core.Identity

	// Send delivers an event asynchronously. Must be non-blocking.
	Send(evt protocol.Event)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}
}

// ChannelSession is a SessionHandle backed by a buffered channel.
// Transports drain Events and forward them to the wire.
type ChannelSession struct {
	id       core.Identity
	events   chan protocol.Event
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelSession creates a channel-based session handle.
// eventBufferSize controls how many events can queue before the oldest is dropped.
func NewChannelSession(id core.Identity, eventBufferSize int) *ChannelSession {
	if eventBufferSize < 1 {
		eventBufferSize = 64
	}
	return &ChannelSession{
		id:     id,
		events: make(chan protocol.Event, eventBufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the session identity.
func (s *ChannelSession) ID() core.Identity {
	return s.id
}

// Send queues an event. When the buffer is full the oldest event is dropped,
// so a slow reader loses stale frames instead of stalling its room.
func (s *ChannelSession) Send(evt protocol.Event) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel to receive events from.
func (s *ChannelSession) Events() <-chan protocol.Event {
	return s.events
}

// Done returns the done channel.
func (s *ChannelSession) Done() <-chan struct{} {
	return s.done
}

// Close marks the session as done. Safe to call multiple times.
func (s *ChannelSession) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// SessionRegistry tracks connected sessions by identity.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[core.Identity]SessionHandle
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[core.Identity]SessionHandle),
	}
}

// Register adds a session, replacing any previous one with the same identity.
func (r *SessionRegistry) Register(session SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Unregister removes a session.
func (r *SessionRegistry) Unregister(id core.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// UnregisterIf removes session only while it is still the one registered for
// its identity. It reports whether it was removed.
func (r *SessionRegistry) UnregisterIf(session SessionHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[session.ID()]; !ok || current != session {
		return false
	}
	delete(r.sessions, session.ID())
	return true
}

// Get retrieves a session by identity.
func (r *SessionRegistry) Get(id core.Identity) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of registered sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
