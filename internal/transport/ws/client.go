package ws

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/pong-arena/internal/protocol"
)

// Client is the dialing side of the gateway, used by the terminal client to
// play against a remote arena.
type Client struct {
	conn    *websocket.Conn
	events  chan protocol.Event
	done    chan struct{}
	once    sync.Once
	writeMu sync.Mutex
	err     error
}

// Dial connects to a gateway at rawURL (ws:// or wss://). A non-empty
// identity is sent as the identity query parameter.
func Dial(ctx context.Context, rawURL, identity string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("ws: parse url: %w", err)
	}
	if identity != "" {
		q := u.Query()
		q.Set(IdentityParam, identity)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", u.Redacted(), err)
	}
	c := &Client{
		conn:   conn,
		events: make(chan protocol.Event, 256),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer c.shutdown(nil)
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.shutdown(err)
			}
			return
		}
		evt, err := protocol.DecodeEvent(raw)
		if err != nil {
			continue
		}
		select {
		case c.events <- evt:
		case <-c.done:
			return
		}
	}
}

// Send writes one command.
func (c *Client) Send(cmd protocol.Command) error {
	raw, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// Events returns decoded server events.
func (c *Client) Events() <-chan protocol.Event {
	return c.events
}

// Done closes when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close sends a close frame and releases the connection.
func (c *Client) Close() {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	c.shutdown(nil)
}

func (c *Client) shutdown(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
		c.conn.Close()
	})
}
