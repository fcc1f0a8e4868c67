package repositories

import (
	"database/sql"
	"fmt"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// CurrentSongRepository owns the now-playing slot.
//
// Every write inserts a new version row; the read path returns the most
// recently selected one. Older versions are implicitly superseded and kept
// only as an audit trail.
type CurrentSongRepository struct {
	db *sql.DB
}

// NewCurrentSongRepository creates a new CurrentSongRepository with the given database connection
func NewCurrentSongRepository(db *sql.DB) *CurrentSongRepository {
	return &CurrentSongRepository{db: db}
}

const currentSongColumns = `id, song_id, song_name, artist, album, album_art, preview_url, spotify_url, duration, selected_by, selected_at`

// Create inserts a new now-playing version with a generated ID.
func (r *CurrentSongRepository) Create(song *models.CurrentSong) error {
	id := shared.GenerateID()
	song.SetID(id)

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO current_song (` + currentSongColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		song.Song.SongID,
		song.Song.SongName,
		song.Song.Artist,
		song.Song.Album,
		song.Song.AlbumArt,
		song.Song.PreviewURL,
		song.Song.SpotifyURL,
		song.Song.Duration,
		song.ChosenBy,
		song.ChosenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert current song: %w", err)
	}

	return nil
}

// Latest returns the most recently selected version, or [shared.ErrNotFound]
// when no song has ever been chosen.
func (r *CurrentSongRepository) Latest() (*models.CurrentSong, error) {
	query := `SELECT ` + currentSongColumns + ` FROM current_song ORDER BY selected_at DESC, rowid DESC LIMIT 1`

	song, err := r.scan(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan current song: %w", err)
	}
	return song, nil
}

func (r *CurrentSongRepository) scan(s queueScanner) (*models.CurrentSong, error) {
	var (
		song       models.CurrentSong
		album      sql.NullString
		albumArt   sql.NullString
		previewURL sql.NullString
		spotifyURL sql.NullString
	)

	err := s.Scan(
		&song.VersionID,
		&song.Song.SongID,
		&song.Song.SongName,
		&song.Song.Artist,
		&album,
		&albumArt,
		&previewURL,
		&spotifyURL,
		&song.Song.Duration,
		&song.ChosenBy,
		&song.ChosenAt,
	)
	if err != nil {
		return nil, err
	}

	song.Song.Album = album.String
	song.Song.AlbumArt = albumArt.String
	song.Song.PreviewURL = previewURL.String
	song.Song.SpotifyURL = spotifyURL.String

	return &song, nil
}
