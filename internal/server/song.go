package server

import (
	"errors"
	"net/http"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/services"
	"github.com/wherebelong/belong/internal/shared"
)

// CurrentSongHandler serves the now-playing slot.
type CurrentSongHandler struct {
	service *services.QueueService
}

// NewCurrentSongHandler creates a CurrentSongHandler over the given service.
func NewCurrentSongHandler(service *services.QueueService) *CurrentSongHandler {
	return &CurrentSongHandler{service: service}
}

// Routes returns the HTTP routes this handler serves.
func (h *CurrentSongHandler) Routes() []string {
	return []string{
		"GET /api/current-song",
		"POST /api/current-song",
		"POST /api/current-song/spotify",
	}
}

func (h *CurrentSongHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		h.get(w)
	case r.Method == http.MethodPost && r.URL.Path == "/api/current-song":
		h.set(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/current-song/spotify":
		h.setFromCatalog(w, r)
	default:
		http.NotFound(w, r)
	}
}

// get returns the current song, or a null song when none was ever chosen.
func (h *CurrentSongHandler) get(w http.ResponseWriter) {
	current, err := h.service.Current()
	if errors.Is(err, shared.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"song": nil})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, current)
}

type setCurrentRequest struct {
	Song       models.Song `json:"song"`
	SelectedBy string      `json:"selectedBy"`
}

func (h *CurrentSongHandler) set(w http.ResponseWriter, r *http.Request) {
	var req setCurrentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := models.ParseIdentity(req.SelectedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	current, err := h.service.SetCurrent(req.Song, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, current)
}

type setFromCatalogRequest struct {
	TrackID    string `json:"trackId"`
	SelectedBy string `json:"selectedBy"`
}

func (h *CurrentSongHandler) setFromCatalog(w http.ResponseWriter, r *http.Request) {
	var req setFromCatalogRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	identity, err := models.ParseIdentity(req.SelectedBy)
	if err != nil {
		writeError(w, err)
		return
	}

	current, err := h.service.SetCurrentFromCatalog(r.Context(), req.TrackID, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, current)
}
