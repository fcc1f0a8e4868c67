package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// TrackCacheRepository caches catalog metadata returned by Spotify search.
//
// Every search result is upserted on fetch so featured and lookup paths can
// degrade to cached metadata when the upstream is unavailable.
type TrackCacheRepository struct {
	db *sql.DB
}

// NewTrackCacheRepository creates a new TrackCacheRepository with the given database connection
func NewTrackCacheRepository(db *sql.DB) *TrackCacheRepository {
	return &TrackCacheRepository{db: db}
}

// Put upserts a song keyed by its catalog ID.
func (r *TrackCacheRepository) Put(song models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, song_id, song_name, artist, album, album_art, preview_url, spotify_url, duration, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (song_id) DO UPDATE SET
			song_name = excluded.song_name,
			artist = excluded.artist,
			album = excluded.album,
			album_art = excluded.album_art,
			preview_url = excluded.preview_url,
			spotify_url = excluded.spotify_url,
			duration = excluded.duration,
			cached_at = excluded.cached_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		song.SongID,
		song.SongName,
		song.Artist,
		song.Album,
		song.AlbumArt,
		song.PreviewURL,
		song.SpotifyURL,
		song.Duration,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}

	return nil
}

// PutAll caches a batch of songs; the first failure aborts.
func (r *TrackCacheRepository) PutAll(songs []models.Song) error {
	for _, song := range songs {
		if err := r.Put(song); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a cached song by catalog ID.
func (r *TrackCacheRepository) Get(songID string) (*models.Song, error) {
	query := `SELECT song_id, song_name, artist, album, album_art, preview_url, spotify_url, duration FROM tracks WHERE song_id = ?`

	var (
		song       models.Song
		album      sql.NullString
		albumArt   sql.NullString
		previewURL sql.NullString
		spotifyURL sql.NullString
	)

	err := r.db.QueryRow(query, songID).Scan(
		&song.SongID,
		&song.SongName,
		&song.Artist,
		&album,
		&albumArt,
		&previewURL,
		&spotifyURL,
		&song.Duration,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan cached track: %w", err)
	}

	song.Album = album.String
	song.AlbumArt = albumArt.String
	song.PreviewURL = previewURL.String
	song.SpotifyURL = spotifyURL.String

	return &song, nil
}

// Count returns the number of cached tracks.
func (r *TrackCacheRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cached tracks: %w", err)
	}
	return count, nil
}

// Clear removes every cached track and returns the number removed.
func (r *TrackCacheRepository) Clear() (int, error) {
	result, err := r.db.Exec(`DELETE FROM tracks`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear track cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}
