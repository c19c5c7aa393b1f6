package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/fretwise/internal/app"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// FrameFeed delivers frame results as they are produced.
type FrameFeed interface {
	Subscribe() (<-chan app.FrameResult, func())
}

// FramesHandler broadcasts frame results via WebSocket.
type FramesHandler struct {
	feed    FrameFeed
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewFramesHandler creates a new FramesHandler over feed.
func NewFramesHandler(feed FrameFeed) *FramesHandler {
	return &FramesHandler{
		feed:    feed,
		clients: make(map[*websocket.Conn]bool),
	}
}

// Clients returns the number of connected clients.
func (h *FramesHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests. Each client gets its own
// subscription; results are written as JSON text messages.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	results, unsubscribe := h.feed.Subscribe()
	defer unsubscribe()

	// Reading is only needed to notice the client going away.
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
		case res, ok := <-results:
			if !ok {
				return
			}
			msg, err := json.Marshal(res)
			if err != nil {
				log.Printf("encode frame result: %v", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
