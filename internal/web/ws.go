package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// KeyReply acknowledges a key sent over the WebSocket.
type KeyReply struct {
	Key    string `json:"key"`
	Status string `json:"status"` // queued, full, invalid, unavailable
	Error  string `json:"error,omitempty"`
}

// wsClient is one WebSocket connection. Only writePump writes to conn.
type wsClient struct {
	conn    *websocket.Conn
	replies chan []byte
}

// HandleWebSocket handles GET /ws: status events out, key presses in.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Error(fmt.Errorf("websocket upgrade: %w", err))
		return
	}
	debug.Live("WebSocket client connected from %s", r.RemoteAddr)

	events, unsub := h.Broadcaster.Subscribe()
	c := &wsClient{conn: conn, replies: make(chan []byte, 8)}
	done := make(chan struct{})
	go c.writePump(events, done, h.closing)

	c.readPump(h.Keys)
	close(done)
	unsub()
	debug.Live("WebSocket client %s gone", r.RemoteAddr)
}

func (c *wsClient) readPump(keys *keypad.Queue) {
	c.conn.SetReadLimit(MaxKeyBodyBytes)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				debug.Error(fmt.Errorf("websocket read: %w", err))
			}
			return
		}
		c.reply(pushKey(keys, data))
	}
}

func pushKey(keys *keypad.Queue, data []byte) KeyReply {
	var req KeyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return KeyReply{Status: "invalid", Error: "invalid JSON"}
	}
	k, err := keypad.ParseKey(req.Key)
	if err != nil {
		return KeyReply{Key: req.Key, Status: "invalid", Error: err.Error()}
	}
	if keys == nil {
		return KeyReply{Key: k.String(), Status: "unavailable"}
	}
	if !keys.Push(k) {
		return KeyReply{Key: k.String(), Status: "full"}
	}
	return KeyReply{Key: k.String(), Status: "queued"}
}

func (c *wsClient) reply(r KeyReply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	select {
	case c.replies <- data:
	default:
		// client not reading, drop
	}
}

func (c *wsClient) writePump(events <-chan string, done, closing <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := c.write(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}

		case data := <-c.replies:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return

		case <-closing:
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
			return
		}
	}
}

func (c *wsClient) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(messageType, data)
}
