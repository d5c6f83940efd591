package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// A socket that has not completed the register handshake within this
	// window is force-disconnected.
	registerTimeout = 30 * time.Second
	sendQueueSize   = 256
	writeTimeout    = 10 * time.Second
)

// TokenVerifier resolves the handshake credential to an identity. The live
// transport has no per-message headers, so the credential rides in the
// register frame payload.
type TokenVerifier interface {
	VerifyConnection(ctx context.Context, token string) (identity string, err error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub upgrades websocket requests and runs the register handshake before a
// connection may enter the registry.
type Hub struct {
	registry *Registry
	verifier TokenVerifier
}

func New(registry *Registry, verifier TokenVerifier) *Hub {
	return &Hub{registry: registry, verifier: verifier}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// ServeWS handles GET /ws. The connection is anonymous and unroutable until
// the client sends {"type":"register","payload":{"token":...}}.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: upgrade: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
	go client.writePump()
	go client.readPump()
}

// Client mediates between one websocket connection and the registry.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	identity string

	mu     sync.Mutex
	closed bool
}

// Push queues a message for the write pump. It never blocks: a full queue
// drops the message so one slow connection cannot stall fan-out. The mutex
// covers the teardown race where an emitter holds a reference to a connection
// that is closing concurrently.
func (c *Client) Push(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

type clientFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type registerPayload struct {
	Token string `json:"token"`
}

// readPump reads frames from the connection. The deferred cleanup runs on
// every exit path, so a registered connection always leaves the registry on
// disconnect, normal or not.
func (c *Client) readPump() {
	defer func() {
		c.hub.registry.Leave(c)
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(registerTimeout))

	for {
		var frame clientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case "register":
			var payload registerPayload
			if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.Token == "" {
				log.Printf("hub: invalid register payload, closing connection")
				return
			}
			identity, err := c.hub.verifier.VerifyConnection(context.Background(), payload.Token)
			if err != nil {
				log.Printf("hub: register rejected: %v", err)
				return
			}
			c.identity = identity
			c.hub.registry.Join(identity, c)
			_ = c.conn.SetReadDeadline(time.Time{})
		default:
			// Pushes are one-way; anything else from the client is ignored.
		}
	}
}

// writePump drains the send queue to the connection in FIFO order.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
