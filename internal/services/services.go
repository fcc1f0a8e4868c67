// package services holds the queue engine and its catalog upstream.
//
// QueueService owns every queue mutation; Catalog abstracts the Spotify
// Web API so handlers and tests never talk to the upstream directly.
package services

import (
	"context"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/realtime"
)

// Catalog defines the music catalog the queue draws songs from.
type Catalog interface {
	// Search finds tracks matching a free-text query.
	Search(ctx context.Context, query string, limit int) ([]models.Song, error)

	// Featured returns a curated set of tracks for the empty-search view.
	Featured(ctx context.Context, limit int) ([]models.Song, error)

	// Track retrieves full metadata for a single track by catalog ID.
	Track(ctx context.Context, trackID string) (*models.Song, error)

	// Name returns the catalog provider name (e.g. "Spotify")
	Name() string
}

// Broadcaster pushes queue, now-playing, and message events to connected
// clients. The realtime hub implements it; tests substitute a recorder.
type Broadcaster interface {
	BroadcastQueueUpdated(payload realtime.QueueUpdatedPayload)
	BroadcastSongUpdated(song *models.CurrentSong)
	BroadcastNewMessage(message *models.Message)
}

// QueueActions are the action labels carried by queueUpdated events.
const (
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionReorder = "reorder"
	ActionClear   = "clear"
	ActionShuffle = "shuffle"
	ActionNext    = "next"
)
