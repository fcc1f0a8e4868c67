package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/services"
	"github.com/wherebelong/belong/internal/shared"
	"golang.org/x/oauth2"
)

// Catalog is what the Spotify endpoints need: catalog reads plus the
// authorization-code helpers.
type Catalog interface {
	services.Catalog
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// SpotifyHandler proxies catalog search and auth endpoints so browser
// clients never see the app credentials.
type SpotifyHandler struct {
	catalog Catalog
}

// NewSpotifyHandler creates a SpotifyHandler over the given catalog.
func NewSpotifyHandler(catalog Catalog) *SpotifyHandler {
	return &SpotifyHandler{catalog: catalog}
}

// Routes returns the HTTP routes this handler serves.
func (h *SpotifyHandler) Routes() []string {
	return []string{
		"GET /api/spotify/search",
		"GET /api/spotify/featured",
		"GET /api/spotify/login",
		"POST /api/spotify/exchange-token",
		"POST /api/spotify/refresh_token",
	}
}

func (h *SpotifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeError(w, fmt.Errorf("%w: spotify is not configured", shared.ErrServiceUnavailable))
		return
	}

	switch r.URL.Path {
	case "/api/spotify/search":
		h.search(w, r)
	case "/api/spotify/featured":
		h.featured(w, r)
	case "/api/spotify/login":
		h.login(w, r)
	case "/api/spotify/exchange-token":
		h.exchange(w, r)
	case "/api/spotify/refresh_token":
		h.refresh(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *SpotifyHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	songs, err := h.catalog.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if songs == nil {
		songs = []models.Song{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tracks": songs})
}

// featured degrades to an empty list on upstream failure. The picker
// simply shows nothing rather than an error banner.
func (h *SpotifyHandler) featured(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	songs, err := h.catalog.Featured(r.Context(), limit)
	if errors.Is(err, shared.ErrUpstreamFailure) {
		songs = []models.Song{}
	} else if err != nil {
		writeError(w, err)
		return
	}
	if songs == nil {
		songs = []models.Song{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tracks": songs})
}

func (h *SpotifyHandler) login(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		state = shared.GenerateID()
	}

	http.Redirect(w, r, h.catalog.AuthURL(state), http.StatusTemporaryRedirect)
}

type exchangeRequest struct {
	Code string `json:"code"`
}

func (h *SpotifyHandler) exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Code == "" {
		writeError(w, fmt.Errorf("%w: missing authorization code", shared.ErrInvalidInput))
		return
	}

	token, err := h.catalog.Exchange(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"expires_at":    token.Expiry,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *SpotifyHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, fmt.Errorf("%w: missing refresh token", shared.ErrInvalidInput))
		return
	}

	token, err := h.catalog.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token.AccessToken,
		"expires_at":   token.Expiry,
	})
}
