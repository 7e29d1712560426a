package ws

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"parlor/internal/game"
	"parlor/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	maxMessageSize = 1 << 20 // image uploads arrive as data URLs
	sendBuffer     = 256
)

var errSendClosed = errors.New("ws: send on closed client")
var errSendFull = errors.New("ws: send buffer full")

// Client drives one websocket connection: a write pump feeding the socket
// from a buffered channel and a read loop dispatching join, rejoin and
// move messages to the hub. It implements game.Conn.
type Client struct {
	gameID string
	conn   *websocket.Conn
	hub    *Hub

	send chan []byte
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewClient(conn *websocket.Conn, hub *Hub, gameID string) *Client {
	return &Client{
		gameID: gameID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Send queues a message for delivery. It fails when the client is closed
// or the buffer is full; callers treat failure as a disconnect signal.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errSendClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errSendFull
	}
}

// Run services the connection until the peer goes away, then routes the
// drop through the hub's disconnect path.
func (c *Client) Run() {
	go c.writePump()
	c.readLoop()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	close(c.done)

	c.hub.Disconnect(c)
	_ = c.conn.Close()
}

func (c *Client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "error", err)
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = c.Send(errorMsg("Malformed message"))
			continue
		}

		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg inboundMessage) {
	switch msg.Type {
	case "join":
		name := strings.TrimSpace(msg.PlayerName)
		if name == "" {
			_ = c.Send(errorMsg("Player name required"))
			return
		}
		c.hub.Join(c, c.gameID, name)

	case "rejoin":
		instanceID := msg.InstanceID
		name := strings.TrimSpace(msg.PlayerName)

		// A valid resume token overrides the id/name pair.
		if sid, player, ok := c.hub.VerifyToken(msg.Token); ok {
			instanceID, name = sid, player
		}

		if instanceID == "" || name == "" {
			_ = c.Send(errorMsg("Instance ID and player name required for rejoin"))
			return
		}

		if !c.hub.Rejoin(c, instanceID, name) {
			// Session gone or name unusable: degrade to a fresh join.
			c.hub.Join(c, c.gameID, name)
		}

	case "move":
		g := c.hub.GameFor(c)
		if g == nil {
			_ = c.Send(errorMsg("Not in a game"))
			return
		}

		var player *game.Player
		for _, p := range g.Base().Players {
			if p.Uses(c) {
				player = p
				break
			}
		}
		if player == nil {
			_ = c.Send(errorMsg("Player not found in game"))
			return
		}

		MovesTotal.WithLabelValues(g.Descriptor().ID).Inc()
		g.HandleMove(player, msg.Data)

	default:
		_ = c.Send(errorMsg("Unknown message type: " + msg.Type))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
