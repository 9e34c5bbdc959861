package countdown

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	applog "gridclock/internal/log"
)

const writeWait = 5 * time.Second

// Broadcaster manages connected WebSocket clients and fans countdown ticks
// and display updates out to them.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: applog.WithComponent("broadcaster"),
	}
}

// HandleConnection upgrades an HTTP request to a WebSocket client, sends it
// the initial payload and keeps it registered until it disconnects.
func (b *Broadcaster) HandleConnection(w http.ResponseWriter, r *http.Request, initial []byte) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	if initial != nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, initial); err != nil {
			b.log.Debug().Err(err).Str("client", conn.RemoteAddr().String()).Msg("initial write failed")
			return
		}
	}

	b.mu.Lock()
	b.clients[conn] = true
	total := len(b.clients)
	b.mu.Unlock()

	b.log.Info().Str("client", conn.RemoteAddr().String()).Int("clients", total).Msg("client connected")

	// Clients are write-only; ReadMessage blocks until disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.mu.Lock()
	delete(b.clients, conn)
	total = len(b.clients)
	b.mu.Unlock()

	b.log.Info().Str("client", conn.RemoteAddr().String()).Int("clients", total).Msg("client disconnected")
}

// Broadcast sends a message to every connected client. The exclusive lock
// serializes writers; gorilla connections do not support concurrent writes.
// Write errors are per-client; the failing connection will clean itself up
// via its read loop.
func (b *Broadcaster) Broadcast(message []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for client := range b.clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			b.log.Debug().Err(err).Str("client", client.RemoteAddr().String()).Msg("broadcast write failed")
		}
	}
}

// Clients reports the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
