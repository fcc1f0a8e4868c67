package repositories

import (
	"database/sql"
	"fmt"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// HistoryRepository persists immutable played-song snapshots.
//
// Rows are append-only: the advance operation writes them and nothing ever
// updates or deletes them.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, sequence, song_id, song_name, artist, album, album_art, preview_url, spotify_url, duration, played_by, played_at, original_added_by, original_added_at`

// Create appends a new [models.HistoryEntry] with generated ID and sequence.
func (r *HistoryRepository) Create(entry *models.HistoryEntry) error {
	sequence, err := NextSequence(r.db, "queue_history")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	entry.SetID(id)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO queue_history (` + historyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		entry.Song.SongID,
		entry.Song.SongName,
		entry.Song.Artist,
		entry.Song.Album,
		entry.Song.AlbumArt,
		entry.Song.PreviewURL,
		entry.Song.SpotifyURL,
		entry.Song.Duration,
		entry.PlayedBy,
		entry.PlayedAt,
		entry.OriginalAddedBy,
		entry.OriginalAddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// Get retrieves a history entry by ID.
func (r *HistoryRepository) Get(id string) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM queue_history WHERE id = ?`

	entry, err := r.scan(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}
	return entry, nil
}

// Recent retrieves the most recent entries ordered by played_at descending.
// A non-positive limit falls back to 50, matching the API default.
func (r *HistoryRepository) Recent(limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + historyColumns + ` FROM queue_history ORDER BY played_at DESC, sequence DESC LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		entry, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Count returns the total number of history entries.
func (r *HistoryRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM queue_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

func (r *HistoryRepository) scan(s queueScanner) (*models.HistoryEntry, error) {
	var (
		entry      models.HistoryEntry
		sequence   int
		album      sql.NullString
		albumArt   sql.NullString
		previewURL sql.NullString
		spotifyURL sql.NullString
	)

	err := s.Scan(
		&entry.HistoryID,
		&sequence,
		&entry.Song.SongID,
		&entry.Song.SongName,
		&entry.Song.Artist,
		&album,
		&albumArt,
		&previewURL,
		&spotifyURL,
		&entry.Song.Duration,
		&entry.PlayedBy,
		&entry.PlayedAt,
		&entry.OriginalAddedBy,
		&entry.OriginalAddedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Song.Album = album.String
	entry.Song.AlbumArt = albumArt.String
	entry.Song.PreviewURL = previewURL.String
	entry.Song.SpotifyURL = spotifyURL.String

	return &entry, nil
}
