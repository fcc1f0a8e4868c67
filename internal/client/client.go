// Package client is the typed HTTP client for the queue API.
//
// The TUI and CLI commands go through it; nothing in here talks to
// Spotify directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// Client makes typed requests against a running queue server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// QueueState is the queue endpoint's composite response.
type QueueState struct {
	Queue []*models.QueueEntry `json:"queue"`
	Stats models.QueueStats    `json:"stats"`
}

// Queue fetches the unplayed queue with its statistics.
func (c *Client) Queue(ctx context.Context) (*QueueState, error) {
	var state QueueState
	if err := c.do(ctx, http.MethodGet, "/api/queue", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Add queues a song. On a duplicate the existing entry is returned
// together with [shared.ErrConflict].
func (c *Client) Add(ctx context.Context, song models.Song, addedBy models.Identity) (*models.QueueEntry, error) {
	body := map[string]any{"song": song, "addedBy": addedBy}

	var entry models.QueueEntry
	err := c.do(ctx, http.MethodPost, "/api/queue", body, &entry)
	if err == nil {
		return &entry, nil
	}

	var apiErr *APIError
	if ok := asAPIError(err, &apiErr); ok && apiErr.StatusCode == http.StatusConflict {
		var conflict struct {
			Entry *models.QueueEntry `json:"entry"`
		}
		if jsonErr := json.Unmarshal(apiErr.Body, &conflict); jsonErr == nil && conflict.Entry != nil {
			return conflict.Entry, shared.ErrConflict
		}
		return nil, shared.ErrConflict
	}

	return nil, err
}

// Remove deletes the unplayed entry for a song on behalf of removedBy.
func (c *Client) Remove(ctx context.Context, songID string, removedBy models.Identity) error {
	path := "/api/queue/" + url.PathEscape(songID) + "?userId=" + url.QueryEscape(string(removedBy))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Reorder applies a new song order and returns the refreshed state.
func (c *Client) Reorder(ctx context.Context, songIDs []string, reorderedBy models.Identity) (*QueueState, error) {
	body := map[string]any{"songIds": songIDs, "reorderedBy": reorderedBy}

	var state QueueState
	if err := c.do(ctx, http.MethodPut, "/api/queue/reorder", body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Shuffle permutes the queue and returns the refreshed state.
func (c *Client) Shuffle(ctx context.Context, shuffledBy models.Identity) (*QueueState, error) {
	body := map[string]any{"shuffledBy": shuffledBy}

	var state QueueState
	if err := c.do(ctx, http.MethodPost, "/api/queue/shuffle", body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Next advances the queue and returns the played entry.
func (c *Client) Next(ctx context.Context, playedBy models.Identity) (*models.QueueEntry, error) {
	var body struct {
		PlayedSong     *models.QueueEntry  `json:"playedSong"`
		NewCurrentSong *models.CurrentSong `json:"newCurrentSong"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/queue/next", map[string]any{"playedBy": playedBy}, &body); err != nil {
		return nil, err
	}
	return body.PlayedSong, nil
}

// Clear removes every unplayed song and reports how many were deleted.
func (c *Client) Clear(ctx context.Context, clearedBy models.Identity) (int, error) {
	var body struct {
		DeletedCount int `json:"deletedCount"`
	}
	path := "/api/queue?userId=" + url.QueryEscape(string(clearedBy))
	if err := c.do(ctx, http.MethodDelete, path, nil, &body); err != nil {
		return 0, err
	}
	return body.DeletedCount, nil
}

// History fetches the most recently played songs, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]*models.HistoryEntry, error) {
	path := "/api/queue/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var body struct {
		History []*models.HistoryEntry `json:"history"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.History, nil
}

// Export fetches the shareable playlist document.
func (c *Client) Export(ctx context.Context) (*models.QueueExport, error) {
	var export models.QueueExport
	if err := c.do(ctx, http.MethodGet, "/api/queue/export", nil, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// Current fetches the now-playing song, or nil when none was ever chosen.
func (c *Client) Current(ctx context.Context) (*models.CurrentSong, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/current-song", nil, &raw); err != nil {
		return nil, err
	}

	// An empty slot answers {"song": null}.
	var peek struct {
		Song *models.Song `json:"song"`
	}
	if err := json.Unmarshal(raw, &peek); err == nil && peek.Song == nil {
		return nil, nil
	}

	var current models.CurrentSong
	if err := json.Unmarshal(raw, &current); err != nil {
		return nil, fmt.Errorf("failed to decode current song: %w", err)
	}
	return &current, nil
}

// SetCurrent replaces the now-playing slot with the given song.
func (c *Client) SetCurrent(ctx context.Context, song models.Song, selectedBy models.Identity) (*models.CurrentSong, error) {
	body := map[string]any{"song": song, "selectedBy": selectedBy}

	var current models.CurrentSong
	if err := c.do(ctx, http.MethodPost, "/api/current-song", body, &current); err != nil {
		return nil, err
	}
	return &current, nil
}

// Messages fetches the wall messages the identity sent or received,
// newest first.
func (c *Client) Messages(ctx context.Context, user models.Identity) ([]*models.Message, error) {
	var messages []*models.Message
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(string(user)), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage leaves a note on the shared message wall.
func (c *Client) PostMessage(ctx context.Context, content string, sender, recipient models.Identity) (*models.Message, error) {
	body := map[string]any{"content": content, "sender": sender, "recipient": recipient}

	var message models.Message
	if err := c.do(ctx, http.MethodPost, "/api/messages", body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkMessageRead flags a message as read.
func (c *Client) MarkMessageRead(ctx context.Context, messageID string) (*models.Message, error) {
	var message models.Message
	if err := c.do(ctx, http.MethodPatch, "/api/messages/"+url.PathEscape(messageID)+"/read", nil, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// Search queries the catalog through the server proxy.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Song, error) {
	path := "/api/spotify/search?q=" + url.QueryEscape(query)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}

	var body struct {
		Tracks []models.Song `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Tracks, nil
}

// Featured fetches the curated track list.
func (c *Client) Featured(ctx context.Context, limit int) ([]models.Song, error) {
	path := "/api/spotify/featured"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var body struct {
		Tracks []models.Song `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	return body.Tracks, nil
}

// Health checks whether the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err == nil && body.Error != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, body.Error)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Unwrap maps the status code back onto the shared sentinel errors so
// callers can errors.Is against them.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusConflict:
		return shared.ErrConflict
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusBadRequest:
		return shared.ErrInvalidOperation
	case http.StatusBadGateway:
		return shared.ErrUpstreamFailure
	case http.StatusServiceUnavailable:
		return shared.ErrServiceUnavailable
	default:
		return nil
	}
}

func asAPIError(err error, target **APIError) bool {
	apiErr, ok := err.(*APIError)
	if ok {
		*target = apiErr
	}
	return ok
}

// do performs one JSON request and decodes the response into result.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: data}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
