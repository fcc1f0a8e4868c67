package models

import (
	"fmt"
	"time"

	"github.com/wherebelong/belong/internal/shared"
)

// Identity is one of the two fixed participants in the shared queue.
type Identity string

const (
	IdentityYours Identity = "yours"
	IdentityCrush Identity = "crush"
)

// Valid reports whether the identity is one of the two known participants.
func (i Identity) Valid() bool {
	return i == IdentityYours || i == IdentityCrush
}

// ParseIdentity validates a raw user identifier from the network boundary.
func ParseIdentity(raw string) (Identity, error) {
	id := Identity(raw)
	if !id.Valid() {
		return "", fmt.Errorf("%w: unknown user %q, must be %q or %q", shared.ErrInvalidInput, raw, IdentityYours, IdentityCrush)
	}
	return id, nil
}

// Song is catalog track metadata as returned by the Spotify proxy.
type Song struct {
	SongID     string `json:"songId"`
	SongName   string `json:"songName"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	AlbumArt   string `json:"albumArt,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
	SpotifyURL string `json:"spotifyUrl,omitempty"`
	Duration   int    `json:"duration,omitempty"` // milliseconds
}

// Validate checks the fields the queue requires before an entry can be created.
func (s Song) Validate() error {
	if s.SongID == "" {
		return fmt.Errorf("songId is required")
	}
	if s.SongName == "" {
		return fmt.Errorf("songName is required")
	}
	if s.Artist == "" {
		return fmt.Errorf("artist is required")
	}
	if s.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	return nil
}

// QueueEntry is a song placed in the shared queue by one of the two participants.
//
// Among entries with Played=false, Position values form a dense 1..N sequence with no
// gaps or duplicates; ascending position order is playback order. At most one
// unplayed entry exists per SongID.
type QueueEntry struct {
	EntryID  string     `json:"id"`
	Song     Song       `json:"song"`
	AddedBy  Identity   `json:"addedBy"`
	AddedAt  time.Time  `json:"addedAt"`
	Position int        `json:"position"`
	Played   bool       `json:"isPlayed"`
	PlayedAt *time.Time `json:"playedAt,omitempty"`
}

// NewQueueEntry creates an unplayed entry at the given position.
func NewQueueEntry(song Song, addedBy Identity, position int) *QueueEntry {
	return &QueueEntry{
		Song:     song,
		AddedBy:  addedBy,
		AddedAt:  time.Now().UTC(),
		Position: position,
	}
}

func (e *QueueEntry) ID() string           { return e.EntryID }
func (e *QueueEntry) SetID(id string)      { e.EntryID = id }
func (e *QueueEntry) CreatedAt() time.Time { return e.AddedAt }

// Validate checks entry invariants before persistence.
func (e *QueueEntry) Validate() error {
	if err := e.Song.Validate(); err != nil {
		return err
	}
	if !e.AddedBy.Valid() {
		return fmt.Errorf("addedBy must be a known identity, got %q", e.AddedBy)
	}
	if e.Position < 1 {
		return fmt.Errorf("position must be >= 1, got %d", e.Position)
	}
	if e.Played && e.PlayedAt == nil {
		return fmt.Errorf("played entry requires playedAt")
	}
	return nil
}

// HistoryEntry is an immutable snapshot of a queue entry at the moment it was
// advanced into the now-playing slot. Never mutated or deleted.
type HistoryEntry struct {
	HistoryID       string    `json:"id"`
	Song            Song      `json:"song"`
	PlayedBy        Identity  `json:"playedBy"`
	PlayedAt        time.Time `json:"playedAt"`
	OriginalAddedBy Identity  `json:"originalAddedBy"`
	OriginalAddedAt time.Time `json:"originalAddedAt"`
}

// NewHistoryEntry snapshots a queue entry that has just been advanced.
func NewHistoryEntry(entry *QueueEntry, playedBy Identity, playedAt time.Time) *HistoryEntry {
	return &HistoryEntry{
		Song:            entry.Song,
		PlayedBy:        playedBy,
		PlayedAt:        playedAt,
		OriginalAddedBy: entry.AddedBy,
		OriginalAddedAt: entry.AddedAt,
	}
}

func (h *HistoryEntry) ID() string           { return h.HistoryID }
func (h *HistoryEntry) SetID(id string)      { h.HistoryID = id }
func (h *HistoryEntry) CreatedAt() time.Time { return h.PlayedAt }

func (h *HistoryEntry) Validate() error {
	if err := h.Song.Validate(); err != nil {
		return err
	}
	if !h.PlayedBy.Valid() {
		return fmt.Errorf("playedBy must be a known identity, got %q", h.PlayedBy)
	}
	if !h.OriginalAddedBy.Valid() {
		return fmt.Errorf("originalAddedBy must be a known identity, got %q", h.OriginalAddedBy)
	}
	return nil
}

// CurrentSong is the single logical "now playing" record. Each write creates a
// new version; the read path always returns the most recently chosen one.
type CurrentSong struct {
	VersionID string    `json:"id"`
	Song      Song      `json:"song"`
	ChosenBy  Identity  `json:"selectedBy"`
	ChosenAt  time.Time `json:"selectedAt"`
}

// NewCurrentSong creates a new now-playing version chosen by the given identity.
func NewCurrentSong(song Song, chosenBy Identity) *CurrentSong {
	return &CurrentSong{
		Song:     song,
		ChosenBy: chosenBy,
		ChosenAt: time.Now().UTC(),
	}
}

func (c *CurrentSong) ID() string           { return c.VersionID }
func (c *CurrentSong) SetID(id string)      { c.VersionID = id }
func (c *CurrentSong) CreatedAt() time.Time { return c.ChosenAt }

func (c *CurrentSong) Validate() error {
	if err := c.Song.Validate(); err != nil {
		return err
	}
	if !c.ChosenBy.Valid() {
		return fmt.Errorf("selectedBy must be a known identity, got %q", c.ChosenBy)
	}
	return nil
}

// QueueStats is derived from the current unplayed set on every query, never stored.
type QueueStats struct {
	TotalSongs    int `json:"totalSongs"`
	TotalDuration int `json:"totalDuration"` // milliseconds
	AddedByYours  int `json:"addedByYours"`
	AddedByCrush  int `json:"addedByCrush"`
}

// QueueExport is the downloadable snapshot document of the unplayed queue.
type QueueExport struct {
	ExportedAt    time.Time      `json:"exportedAt"`
	TotalSongs    int            `json:"totalSongs"`
	TotalDuration int            `json:"totalDuration"`
	Playlist      []ExportedSong `json:"playlist"`
}

// ExportedSong is one row of the export document, in position order.
type ExportedSong struct {
	Name       string    `json:"name"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album,omitempty"`
	SpotifyURL string    `json:"spotifyUrl,omitempty"`
	Duration   int       `json:"duration"`
	AddedBy    Identity  `json:"addedBy"`
	AddedAt    time.Time `json:"addedAt"`
}
