// Spotify catalog implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	Popularity   int             `json:"popularity"`
	URI          string          `json:"uri"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyFeaturedResponse struct {
	Playlists struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	} `json:"playlists"`
}

type spotifyPlaylistTracksResponse struct {
	Items []struct {
		Track *SpotifyTrack `json:"track"`
	} `json:"items"`
}

// SpotifyCatalog implements [Catalog] against the Spotify Web API.
//
// Catalog reads (search, featured, track lookup) authenticate with the
// client-credentials flow so no listener login is needed. The separate
// authorization-code helpers exist for clients that want playback on a
// real Spotify account.
//
// Requests are rate limited and every track that passes through is
// upserted into the local cache, which serves as a fallback for track
// lookups when the upstream is down.
type SpotifyCatalog struct {
	authConfig *oauth2.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *repositories.TrackCacheRepository
	logger     *log.Logger
	baseURL    string
}

// NewSpotifyCatalog creates a catalog client from Spotify app credentials.
// The cache may be nil; lookups then have no offline fallback.
func NewSpotifyCatalog(ctx context.Context, creds shared.SpotifyConfig, cache *repositories.TrackCacheRepository, logger *log.Logger) (*SpotifyCatalog, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	ccConfig := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     spotifyTokenURL,
	}

	authConfig := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes: []string{
			"streaming",
			"user-read-playback-state",
			"user-modify-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyCatalog{
		authConfig: authConfig,
		httpClient: ccConfig.Client(ctx),
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
		cache:      cache,
		logger:     logger,
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the authorization-code configuration for the
// local login flow.
func (s *SpotifyCatalog) OAuthConfig() *oauth2.Config {
	return s.authConfig
}

// AuthURL returns the authorization-code URL for a listener login.
func (s *SpotifyCatalog) AuthURL(state string) string {
	return s.authConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func (s *SpotifyCatalog) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.authConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh obtains a fresh access token from a refresh token.
func (s *SpotifyCatalog) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := s.authConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	return token, nil
}

// Search finds tracks matching a free-text query.
func (s *SpotifyCatalog) Search(ctx context.Context, query string, limit int) ([]models.Song, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response spotifySearchResponse
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(response.Tracks.Items))
	for _, track := range response.Tracks.Items {
		songs = append(songs, songFromTrack(track))
	}

	s.cacheSongs(songs)

	return songs, nil
}

// Featured returns tracks from Spotify's first featured playlist.
// Upstream failures surface as [shared.ErrUpstreamFailure]; callers are
// expected to degrade to an empty list.
func (s *SpotifyCatalog) Featured(ctx context.Context, limit int) ([]models.Song, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var featured spotifyFeaturedResponse
	if err := s.doRequest(ctx, "/browse/featured-playlists?limit=1", &featured); err != nil {
		return nil, err
	}

	if len(featured.Playlists.Items) == 0 {
		return []models.Song{}, nil
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d", featured.Playlists.Items[0].ID, limit)

	var tracks spotifyPlaylistTracksResponse
	if err := s.doRequest(ctx, endpoint, &tracks); err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(tracks.Items))
	for _, item := range tracks.Items {
		if item.Track == nil {
			continue
		}
		songs = append(songs, songFromTrack(*item.Track))
	}

	s.cacheSongs(songs)

	return songs, nil
}

// Track retrieves a single track by ID, falling back to the local cache
// when the upstream is unreachable.
func (s *SpotifyCatalog) Track(ctx context.Context, trackID string) (*models.Song, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: empty track ID", shared.ErrInvalidInput)
	}

	var track SpotifyTrack
	err := s.doRequest(ctx, "/tracks/"+url.PathEscape(trackID), &track)
	if err != nil {
		if s.cache != nil {
			if cached, cacheErr := s.cache.Get(trackID); cacheErr == nil {
				s.logger.Warn("serving track from cache after upstream failure", "trackId", trackID)
				return cached, nil
			}
		}
		return nil, err
	}

	song := songFromTrack(track)
	s.cacheSongs([]models.Song{song})

	return &song, nil
}

// doRequest performs a rate-limited GET against the Spotify API.
func (s *SpotifyCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrUpstreamFailure, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstreamFailure, err)
		}
	}

	return nil
}

func (s *SpotifyCatalog) cacheSongs(songs []models.Song) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutAll(songs); err != nil {
		s.logger.Warn("failed to cache tracks", "error", err)
	}
}

// songFromTrack maps a Spotify API track to the queue's song shape.
func songFromTrack(track SpotifyTrack) models.Song {
	song := models.Song{
		SongID:     track.ID,
		SongName:   track.Name,
		Album:      track.Album.Name,
		PreviewURL: track.PreviewURL,
		SpotifyURL: track.ExternalURLs.Spotify,
		Duration:   track.DurationMS,
	}

	if len(track.Artists) > 0 {
		song.Artist = track.Artists[0].Name
	}

	if len(track.Album.Images) > 0 {
		song.AlbumArt = track.Album.Images[0].URL
	}

	return song
}
