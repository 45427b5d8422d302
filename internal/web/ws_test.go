package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/cjeanneret/mattoscam/internal/logic/control"
	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, h *Handlers) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestWebSocket_KeyQueued(t *testing.T) {
	q := keypad.NewQueue(4)
	conn, cleanup := dialWS(t, newTestHandlers(q))
	defer cleanup()

	if err := conn.WriteJSON(KeyRequest{Key: "C"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply KeyReply
	readJSON(t, conn, &reply)
	if reply.Key != "C" || reply.Status != "queued" {
		t.Errorf("reply = %+v, want C queued", reply)
	}

	k, ok, _ := q.Poll()
	if !ok || k != keypad.KeyC {
		t.Errorf("queue Poll() = %v, %v; want C, true", k, ok)
	}
}

func TestWebSocket_KeyReplies(t *testing.T) {
	cases := []struct {
		name   string
		keys   *keypad.Queue
		msg    string
		status string
	}{
		{"invalid_json", keypad.NewQueue(1), "{", "invalid"},
		{"unknown_key", keypad.NewQueue(1), `{"key":"Z"}`, "invalid"},
		{"no_queue", nil, `{"key":"1"}`, "unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, cleanup := dialWS(t, newTestHandlers(tc.keys))
			defer cleanup()

			if err := conn.WriteMessage(websocket.TextMessage, []byte(tc.msg)); err != nil {
				t.Fatalf("write: %v", err)
			}
			var reply KeyReply
			readJSON(t, conn, &reply)
			if reply.Status != tc.status {
				t.Errorf("status = %q, want %q", reply.Status, tc.status)
			}
		})
	}
}

func TestWebSocket_QueueFull(t *testing.T) {
	conn, cleanup := dialWS(t, newTestHandlers(keypad.NewQueue(1)))
	defer cleanup()

	want := []string{"queued", "full"}
	for i, status := range want {
		if err := conn.WriteJSON(KeyRequest{Key: "5"}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
		var reply KeyReply
		readJSON(t, conn, &reply)
		if reply.Status != status {
			t.Errorf("reply %d status = %q, want %q", i, reply.Status, status)
		}
	}
}

func TestWebSocket_ReceivesStatus(t *testing.T) {
	h := newTestHandlers(nil)
	conn, cleanup := dialWS(t, h)
	defer cleanup()

	// The subscription is registered once the handler runs; a key round
	// trip guarantees that.
	conn.WriteJSON(KeyRequest{Key: "1"})
	var reply KeyReply
	readJSON(t, conn, &reply)

	h.Observe(control.Snapshot{Event: "render", Mode: "Seguimiento", Pan: 90, Tilt: 90, Time: time.Now()})

	var evt StatusEvent
	readJSON(t, conn, &evt)
	if evt.Status == nil || evt.Status.Mode != "Seguimiento" {
		t.Errorf("event = %+v, want Seguimiento snapshot", evt)
	}
}

func TestWebSocket_CloseEndsConnection(t *testing.T) {
	h := newTestHandlers(nil)
	conn, cleanup := dialWS(t, h)
	defer cleanup()

	conn.WriteJSON(KeyRequest{Key: "1"})
	var reply KeyReply
	readJSON(t, conn, &reply)

	h.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("read after Close = %v, want going-away close", err)
	}
}

func TestPushKey(t *testing.T) {
	q := keypad.NewQueue(2)
	reply := pushKey(q, []byte(`{"key":"*"}`))
	if reply.Status != "queued" || reply.Key != "*" {
		t.Errorf("reply = %+v, want * queued", reply)
	}
	data, _ := json.Marshal(reply)
	if strings.Contains(string(data), "error") {
		t.Errorf("queued reply should omit error: %s", data)
	}
}
