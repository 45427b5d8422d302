package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/cjeanneret/mattoscam/internal/logic/control"
	"github.com/gorilla/websocket"
)

// MaxKeyBodyBytes caps the body of POST /key.
const MaxKeyBodyBytes = 1 << 10

// Settings are the loop parameters shown by GET /config.
type Settings struct {
	TickMs     int  `json:"tick_ms"`
	Threshold  int  `json:"threshold"`
	DebounceMs int  `json:"debounce_ms"`
	Microphone bool `json:"microphone"`
	ShowClock  bool `json:"show_clock"`
}

// KeyRequest is the body of POST /key and of WebSocket messages.
type KeyRequest struct {
	Key string `json:"key"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Keys        *keypad.Queue
	Settings    Settings
	staticFS    fs.FS
	upgrader    websocket.Upgrader

	mu   sync.RWMutex
	last *control.Snapshot

	closeOnce sync.Once
	closing   chan struct{}
}

// NewHandlers creates handlers with the given dependencies.
// If keys is nil, POST /key returns 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, keys *keypad.Queue, settings Settings, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Keys:        keys,
		Settings:    settings,
		staticFS:    staticFS,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // LAN-only device
			},
		},
		closing: make(chan struct{}),
	}
}

// Observe records s as the current status and pushes it to stream
// clients. It is registered as the control loop's snapshot hook.
func (h *Handlers) Observe(s control.Snapshot) {
	h.mu.Lock()
	h.last = &s
	h.mu.Unlock()
	h.Broadcaster.BroadcastStatus(s)
}

// Close ends every open stream. Called on server shutdown.
func (h *Handlers) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// HandleStatus returns the last published snapshot as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()
	if last == nil {
		http.Error(w, "no status yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(last)
}

// HandleConfig returns the loop settings as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Settings)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleKey handles POST /key: one virtual keypad press.
func (h *Handlers) HandleKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxKeyBodyBytes)
	var req KeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	k, err := keypad.ParseKey(req.Key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.Keys == nil {
		http.Error(w, "virtual keypad not configured", http.StatusServiceUnavailable)
		return
	}
	if !h.Keys.Push(k) {
		http.Error(w, "key queue full", http.StatusTooManyRequests)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued", "key": k.String()})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return

		case <-h.closing:
			return
		}
	}
}
