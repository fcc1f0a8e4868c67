package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/realtime"
	"github.com/wherebelong/belong/internal/services"
	"github.com/wherebelong/belong/internal/shared"
)

// wsUpgrader accepts any origin. Access control is not this service's
// concern; it serves two listeners on a private deployment.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades connections and hands them to the realtime hub.
//
// Each new client receives a queue snapshot and the current song before
// any live event, so it never renders from stale local state.
type WSHandler struct {
	hub     *realtime.Hub
	service *services.QueueService
	logger  *log.Logger
}

// NewWSHandler creates a WSHandler over the given hub and service.
func NewWSHandler(hub *realtime.Hub, service *services.QueueService, logger *log.Logger) *WSHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &WSHandler{hub: hub, service: service, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *WSHandler) Routes() []string {
	return []string{"GET /ws"}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.hub.Register(conn, h.snapshot()...)
}

// snapshot builds the initial events for a fresh connection.
func (h *WSHandler) snapshot() []realtime.Event {
	var events []realtime.Event

	entries, err := h.service.List()
	if err != nil {
		h.logger.Error("failed to snapshot queue", "error", err)
		entries = nil
	}
	if entries == nil {
		entries = []*models.QueueEntry{}
	}
	events = append(events, realtime.Event{
		Type:    realtime.EventQueueUpdated,
		Payload: realtime.QueueUpdatedPayload{Action: "sync", Queue: entries},
	})

	current, err := h.service.Current()
	if err == nil {
		events = append(events, realtime.Event{
			Type:    realtime.EventSongUpdated,
			Payload: realtime.SongUpdatedPayload{Song: current},
		})
	} else if !errors.Is(err, shared.ErrNotFound) {
		h.logger.Error("failed to snapshot current song", "error", err)
	}

	return events
}
