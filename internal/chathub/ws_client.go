package chathub

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize allows image messages, which arrive as data URLs.
	maxMessageSize = 1 << 20

	sendBufferSize = 256
)

// WebSocketClient implements the Client interface on top of a gorilla
// websocket connection.
type WebSocketClient struct {
	ConnID string
	Conn   *websocket.Conn
	Hub    *Hub
	Router *Router

	// Bound identity. Written only from the connection's own read pump
	// (via Bind/Unbind), read by the hub's broadcast snapshot.
	mu            sync.RWMutex
	roomID        string
	participantID string
	nickname      string

	send     chan []byte
	sendOnce sync.Once
	closed   bool
}

// NewWebSocketClient wraps an upgraded connection. The connection stays
// unbound until its first successful join_room.
func NewWebSocketClient(connID string, conn *websocket.Conn, hub *Hub, router *Router) *WebSocketClient {
	return &WebSocketClient{
		ConnID: connID,
		Conn:   conn,
		Hub:    hub,
		Router: router,
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *WebSocketClient) GetConnID() string { return c.ConnID }

func (c *WebSocketClient) GetRoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

func (c *WebSocketClient) GetParticipantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participantID
}

func (c *WebSocketClient) GetNickname() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nickname
}

func (c *WebSocketClient) IsBound() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participantID != ""
}

func (c *WebSocketClient) Bind(roomID, participantID, nickname string) {
	c.mu.Lock()
	c.roomID = roomID
	c.participantID = participantID
	c.nickname = nickname
	c.mu.Unlock()
}

func (c *WebSocketClient) Unbind() (string, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	roomID, participantID, nickname := c.roomID, c.participantID, c.nickname
	c.roomID = ""
	c.participantID = ""
	c.nickname = ""
	return roomID, participantID, nickname
}

// TrySend queues a frame for the write pump without blocking. A full
// buffer means the peer has stopped reading; the hub will drop it.
func (c *WebSocketClient) TrySend(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close shuts the send channel, which stops the write pump. The read pump
// stops on its own once the connection closes.
func (c *WebSocketClient) Close() {
	c.sendOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message on connection %s: %v", c.ConnID, err)
			}
			break
		}
		c.Router.Dispatch(c, data)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

			// Drain whatever queued up while writing.
			n := len(c.send)
			for i := 0; i < n; i++ {
				extra, ok := <-c.send
				if !ok {
					return
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, extra); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
