// Package realtime pushes queue and now-playing events to every
// connected listener over a websocket.
//
// Events carry full state snapshots, so a client that drops a message
// converges again on the next one.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// Event is the wire envelope for every realtime message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Event types pushed to clients.
const (
	EventQueueUpdated = "queueUpdated"
	EventSongUpdated  = "songUpdated"
	EventNewMessage   = "newMessage"
)

// QueueUpdatedPayload carries the mutation action, the full refreshed
// queue, and who performed the mutation. Each action sets its own actor
// field; the others stay empty and are omitted from the wire.
type QueueUpdatedPayload struct {
	Action         string               `json:"action"`
	Queue          []*models.QueueEntry `json:"queue"`
	AddedBy        models.Identity      `json:"addedBy,omitempty"`
	RemovedBy      models.Identity      `json:"removedBy,omitempty"`
	ReorderedBy    models.Identity      `json:"reorderedBy,omitempty"`
	ShuffledBy     models.Identity      `json:"shuffledBy,omitempty"`
	ClearedBy      models.Identity      `json:"clearedBy,omitempty"`
	PlayedBy       models.Identity      `json:"playedBy,omitempty"`
	DeletedCount   int                  `json:"deletedCount,omitempty"`
	PlayedSong     *models.QueueEntry   `json:"playedSong,omitempty"`
	NewCurrentSong *models.CurrentSong  `json:"newCurrentSong,omitempty"`
}

// SongUpdatedPayload carries the new now-playing song.
type SongUpdatedPayload struct {
	Song *models.CurrentSong `json:"song"`
}

// NewMessagePayload carries a freshly posted wall message.
type NewMessagePayload struct {
	Message *models.Message `json:"message"`
}

const (
	sendBuffer   = 64
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
)

// client is one connected websocket with its own send queue.
// A single writer goroutine per client keeps delivery FIFO.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to every connected client.
//
// Sends are non-blocking: a client whose send buffer is full has the
// event dropped rather than stalling the broadcast. Slow consumers
// lose intermediate states, never the stream.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
	logger  *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
}

// Register adopts an upgraded websocket connection. The given initial
// events are queued before any broadcast so the client starts from
// current state. Register owns the connection from here on.
func (h *Hub) Register(conn *websocket.Conn, initial ...Event) {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	for _, event := range initial {
		if data, err := json.Marshal(event); err == nil {
			c.send <- data
		}
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("client connected", "clients", h.ClientCount())

	go h.writeLoop(c)
	go h.readLoop(c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastQueueUpdated pushes a queueUpdated event to every client.
func (h *Hub) BroadcastQueueUpdated(payload QueueUpdatedPayload) {
	if payload.Queue == nil {
		payload.Queue = []*models.QueueEntry{}
	}
	h.broadcast(Event{
		Type:    EventQueueUpdated,
		Payload: payload,
	})
}

// BroadcastSongUpdated pushes a songUpdated event to every client.
func (h *Hub) BroadcastSongUpdated(song *models.CurrentSong) {
	h.broadcast(Event{
		Type:    EventSongUpdated,
		Payload: SongUpdatedPayload{Song: song},
	})
}

// BroadcastNewMessage pushes a newMessage event to every client.
func (h *Hub) BroadcastNewMessage(message *models.Message) {
	h.broadcast(Event{
		Type:    EventNewMessage,
		Payload: NewMessagePayload{Message: message},
	})
}

func (h *Hub) broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping event for slow client", "type", event.Type)
		}
	}
}

// Close disconnects every client. The hub accepts no registrations after.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// writeLoop is the single writer for one client. It drains the send
// queue and keeps the connection alive with pings.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readLoop drains inbound frames so control messages are processed and
// a closed connection is noticed promptly. Clients never send data.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.unregister(c)
			return
		}
	}
}
