package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/services"
	"github.com/wherebelong/belong/internal/shared"
)

// QueueHandler serves the queue endpoints.
//
// A duplicate add returns 409 with the existing entry so the client can
// show who queued the song first.
type QueueHandler struct {
	service *services.QueueService
}

// NewQueueHandler creates a QueueHandler over the given service.
func NewQueueHandler(service *services.QueueService) *QueueHandler {
	return &QueueHandler{service: service}
}

// Routes returns the HTTP routes this handler serves.
func (h *QueueHandler) Routes() []string {
	return []string{
		"GET /api/queue",
		"POST /api/queue",
		"DELETE /api/queue",
		"DELETE /api/queue/{songId}",
		"PUT /api/queue/reorder",
		"POST /api/queue/shuffle",
		"POST /api/queue/next",
		"GET /api/queue/history",
		"GET /api/queue/export",
	}
}

func (h *QueueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/queue":
		h.list(w)
	case r.Method == http.MethodPost && r.URL.Path == "/api/queue":
		h.add(w, r)
	case r.Method == http.MethodDelete && r.URL.Path == "/api/queue":
		h.clear(w, r)
	case r.Method == http.MethodDelete && r.PathValue("songId") != "":
		h.remove(w, r)
	case r.Method == http.MethodPut && r.URL.Path == "/api/queue/reorder":
		h.reorder(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/queue/shuffle":
		h.shuffle(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/queue/next":
		h.next(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/queue/history":
		h.history(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/queue/export":
		h.export(w)
	default:
		http.NotFound(w, r)
	}
}

type queueResponse struct {
	Queue []*models.QueueEntry `json:"queue"`
	Stats models.QueueStats    `json:"stats"`
}

func (h *QueueHandler) list(w http.ResponseWriter) {
	entries, err := h.service.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.QueueEntry{}
	}

	stats, err := h.service.Stats()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queueResponse{Queue: entries, Stats: stats})
}

type addRequest struct {
	Song    models.Song `json:"song"`
	AddedBy string      `json:"addedBy"`
}

func (h *QueueHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := models.ParseIdentity(req.AddedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.service.Add(req.Song, identity)
	if errors.Is(err, shared.ErrConflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": err.Error(),
			"entry": entry,
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *QueueHandler) remove(w http.ResponseWriter, r *http.Request) {
	removedBy, err := models.ParseIdentity(r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	songID := r.PathValue("songId")
	if err := h.service.Remove(songID, removedBy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": songID, "removedBy": removedBy})
}

func (h *QueueHandler) clear(w http.ResponseWriter, r *http.Request) {
	clearedBy, err := models.ParseIdentity(r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}

	deleted, err := h.service.Clear(clearedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deletedCount": deleted, "clearedBy": clearedBy})
}

type reorderRequest struct {
	SongIDs     []string `json:"songIds"`
	ReorderedBy string   `json:"reorderedBy"`
}

func (h *QueueHandler) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := models.ParseIdentity(req.ReorderedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Reorder(req.SongIDs, identity); err != nil {
		writeError(w, err)
		return
	}

	h.list(w)
}

type shuffleRequest struct {
	ShuffledBy string `json:"shuffledBy"`
}

func (h *QueueHandler) shuffle(w http.ResponseWriter, r *http.Request) {
	var req shuffleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := models.ParseIdentity(req.ShuffledBy)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Shuffle(identity); err != nil {
		writeError(w, err)
		return
	}
	h.list(w)
}

type nextRequest struct {
	PlayedBy string `json:"playedBy"`
}

func (h *QueueHandler) next(w http.ResponseWriter, r *http.Request) {
	var req nextRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := models.ParseIdentity(req.PlayedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	played, nowPlaying, err := h.service.Advance(identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playedSong":     played,
		"newCurrentSong": nowPlaying,
	})
}

func (h *QueueHandler) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: limit must be a number", shared.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	entries, err := h.service.History(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *QueueHandler) export(w http.ResponseWriter) {
	export, err := h.service.Export()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="our-playlist.json"`)
	writeJSON(w, http.StatusOK, export)
}
