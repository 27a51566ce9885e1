package coordinator

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. 64 KB fits any SDP.
	maxMessageSize = 64 * 1024
)

// Client is one websocket connection, i.e. one participant identity. The ID
// is assigned by the server for the lifetime of the connection; a reconnect
// is a brand-new identity.
type Client struct {
	ID   string
	conn *websocket.Conn
	hub  *Coordinator
	send chan *protocol.Message
	log  *logging.Logger

	// rooms this participant belongs to, mutated only by the hub goroutine.
	rooms map[string]struct{}
}

func NewClient(id string, conn *websocket.Conn, hub *Coordinator, log *logging.Logger) *Client {
	return &Client{
		ID:    id,
		conn:  conn,
		hub:   hub,
		send:  make(chan *protocol.Message, 64),
		log:   log.Extend(log.With().Str("participant", id)),
		rooms: make(map[string]struct{}, 1),
	}
}

// deliver queues msg for the client's write pump without blocking. Relay is
// fire-and-forget: a slow consumer loses messages instead of stalling the
// coordinator loop.
func (c *Client) deliver(msg *protocol.Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn().Str("kind", msg.Type).Msg("send buffer full, message dropped")
		return false
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// One ReadPump goroutine runs per connection; all reads happen here so there
// is at most one reader on the connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("read failed")
			}
			break
		}
		c.hub.Inbound <- Inbound{Client: c, Msg: &msg}
	}
}

// WritePump pumps messages from the hub to the websocket connection and keeps
// the connection alive with periodic pings. One WritePump goroutine runs per
// connection; all writes happen here.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Warn().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
