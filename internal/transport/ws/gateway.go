// Package ws exposes the arena over WebSocket and HTTP. Each WebSocket
// connection is one identity; frames carry protocol envelopes.
package ws

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pong-arena/internal/core"
	"github.com/vovakirdan/pong-arena/internal/multiplayer"
	"github.com/vovakirdan/pong-arena/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// Paddle input arrives at key-repeat rate; anything beyond this is dropped.
	maxMessagesPerSecond = 120
)

// IdentityParam is the query parameter a client may use to pick its identity.
// Reusing an identity takes over the previous connection.
const IdentityParam = "identity"

// Gateway upgrades HTTP requests and bridges each connection to the manager.
type Gateway struct {
	manager    *multiplayer.Manager
	log        *log.Logger
	upgrader   websocket.Upgrader
	sendBuffer int
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithSendBuffer sets the per-connection outbound queue length.
func WithSendBuffer(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.sendBuffer = n
		}
	}
}

// WithCheckOrigin replaces the origin check. The default accepts any origin.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(g *Gateway) {
		g.upgrader.CheckOrigin = fn
	}
}

// AllowOrigins returns an origin check for WithCheckOrigin. Requests without
// an Origin header pass; browser requests must come from one of hosts.
func AllowOrigins(hosts []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return allowed[strings.ToLower(u.Host)]
	}
}

// NewGateway creates a gateway for m.
func NewGateway(m *multiplayer.Manager, logger *log.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		manager:    m,
		log:        logger.WithPrefix("ws"),
		sendBuffer: 64,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// identityFor returns the requested identity or a fresh one.
func identityFor(r *http.Request) core.Identity {
	if id := strings.TrimSpace(r.URL.Query().Get(IdentityParam)); id != "" {
		return core.Identity(id)
	}
	return core.Identity("ws-" + uuid.NewString())
}

// ServeHTTP upgrades the connection and runs it until either side closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := identityFor(r)
	previous, hadPrevious := g.manager.Sessions().Get(id)

	session := multiplayer.NewChannelSession(id, g.sendBuffer)
	g.manager.Connect(session)
	if hadPrevious {
		if cs, ok := previous.(*multiplayer.ChannelSession); ok {
			cs.Close()
		}
		g.log.Info("connection taken over", "identity", id)
	}
	g.log.Info("connected", "identity", id, "remote", r.RemoteAddr)

	c := &client{
		id:      id,
		conn:    conn,
		session: session,
		manager: g.manager,
		log:     g.log,
	}
	go c.writePump()
	c.readPump()
}

// client is one live WebSocket connection.
type client struct {
	id      core.Identity
	conn    *websocket.Conn
	session *multiplayer.ChannelSession
	manager *multiplayer.Manager
	log     *log.Logger
}

// readPump decodes commands until the connection fails, then ends the session.
func (c *client) readPump() {
	defer func() {
		c.session.Close()
		c.conn.Close()
		c.log.Info("disconnected", "identity", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	messageCount := 0
	rateLimitReset := time.Now()

	for {
		kind, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read failed", "identity", c.id, "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		now := time.Now()
		if now.Sub(rateLimitReset) >= time.Second {
			messageCount = 0
			rateLimitReset = now
		}
		messageCount++
		if messageCount > maxMessagesPerSecond {
			continue
		}

		cmd, err := protocol.DecodeCommand(raw)
		if err != nil {
			c.session.Send(protocol.Error{Reason: multiplayer.Reason(err)})
			continue
		}
		c.manager.Handle(c.id, cmd)
	}
}

// writePump forwards session events to the socket and keeps it alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.session.Events():
			raw, err := protocol.EncodeEvent(evt)
			if err != nil {
				c.log.Error("encode failed", "identity", c.id, "event", evt.EventType(), "err", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.session.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
