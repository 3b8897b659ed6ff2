package tui

import (
	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Conn is the client's link to an arena, either in-process or over the network.
type Conn interface {
	Send(cmd protocol.Command) error
	Events() <-chan protocol.Event
	Done() <-chan struct{}
	Close()
}

// LocalConn plays against a Manager in the same process. The SSH server and
// the offline `play` command use it.
type LocalConn struct {
	manager *multiplayer.Manager
	session *multiplayer.ChannelSession
}

// NewLocalConn registers id with m.
func NewLocalConn(m *multiplayer.Manager, id core.Identity, buffer int) *LocalConn {
	s := multiplayer.NewChannelSession(id, buffer)
	m.Connect(s)
	return &LocalConn{manager: m, session: s}
}

// ID returns the connection identity.
func (c *LocalConn) ID() core.Identity {
	return c.session.ID()
}

// Send hands cmd to the manager. Rejections arrive as error events.
func (c *LocalConn) Send(cmd protocol.Command) error {
	select {
	case <-c.session.Done():
		return multiplayer.ErrNotConnected
	default:
	}
	c.manager.Handle(c.session.ID(), cmd)
	return nil
}

// Events returns the event stream.
func (c *LocalConn) Events() <-chan protocol.Event {
	return c.session.Events()
}

// Done closes when the connection ends.
func (c *LocalConn) Done() <-chan struct{} {
	return c.session.Done()
}

// Close ends the session; the manager then removes it from its room.
func (c *LocalConn) Close() {
	c.session.Close()
}
