package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ayusman/mudra/internal/detector"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the server binds to loopback
	},
}

// LandmarkFrame is one message on /api/landmarks.
type LandmarkFrame struct {
	Mode      string                   `json:"mode"`
	Hands     []detector.HandLandmarks `json:"hands"`
	Timestamp int64                    `json:"timestamp"`
}

// LandmarkHub broadcasts per-frame landmark sets over WebSocket. The primary
// loop publishes; slow clients miss frames instead of blocking it.
type LandmarkHub struct {
	logger  zerolog.Logger
	clients map[*websocket.Conn]chan []byte
	mu      sync.RWMutex
}

// NewLandmarkHub creates a hub with no clients.
func NewLandmarkHub(logger zerolog.Logger) *LandmarkHub {
	return &LandmarkHub{
		logger:  logger.With().Str("component", "landmarks").Logger(),
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Clients returns the number of connected clients.
func (h *LandmarkHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends one frame's landmarks to every client.
func (h *LandmarkHub) Publish(mode string, hands []detector.HandLandmarks) {
	if h.Clients() == 0 {
		return
	}
	if hands == nil {
		hands = []detector.HandLandmarks{}
	}

	msg, err := json.Marshal(LandmarkFrame{Mode: mode, Hands: hands, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode landmarks")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, out := range h.clients {
		select {
		case out <- msg:
		default:
		}
	}
}

// ServeHTTP upgrades the connection and streams frames until it closes.
func (h *LandmarkHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	out := make(chan []byte, 4)
	h.mu.Lock()
	h.clients[conn] = out
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Reads only detect the close; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case msg := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
