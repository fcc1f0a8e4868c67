package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// QueueRepository persists queue entries and maintains the position invariant:
// among unplayed rows, positions form a dense ascending 1..N sequence.
//
// The repository performs single-statement or single-transaction mutations
// only; ordering decisions (which entry goes where) belong to the service
// layer.
type QueueRepository struct {
	db *sql.DB
}

// NewQueueRepository creates a new QueueRepository with the given database connection
func NewQueueRepository(db *sql.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

const queueColumns = `id, song_id, song_name, artist, album, album_art, preview_url, spotify_url, duration, added_by, added_at, position, is_played, played_at`

// Create inserts a new [models.QueueEntry] with a generated ID.
func (r *QueueRepository) Create(entry *models.QueueEntry) error {
	id := shared.GenerateID()
	entry.SetID(id)

	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO queue (` + queueColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		entry.Song.SongID,
		entry.Song.SongName,
		entry.Song.Artist,
		entry.Song.Album,
		entry.Song.AlbumArt,
		entry.Song.PreviewURL,
		entry.Song.SpotifyURL,
		entry.Song.Duration,
		entry.AddedBy,
		entry.AddedAt,
		entry.Position,
		entry.Played,
		entry.PlayedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}

	return nil
}

// Get retrieves a queue entry by its generated ID.
func (r *QueueRepository) Get(id string) (*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetUnplayedBySongID retrieves the unplayed entry for a song, if any.
// Returns [shared.ErrNotFound] when no unplayed entry matches.
func (r *QueueRepository) GetUnplayedBySongID(songID string) (*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue WHERE song_id = ? AND is_played = 0`
	return r.scanOne(r.db.QueryRow(query, songID))
}

// ListUnplayed retrieves all unplayed entries ordered by position ascending.
func (r *QueueRepository) ListUnplayed() ([]*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue WHERE is_played = 0 ORDER BY position ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// List retrieves all entries, unplayed first in position order, then played by played_at.
func (r *QueueRepository) List() ([]*models.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue ORDER BY is_played ASC, position ASC, played_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var entries []*models.QueueEntry
	for rows.Next() {
		entry, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// MaxUnplayedPosition returns the highest position among unplayed entries, 0 when empty.
func (r *QueueRepository) MaxUnplayedPosition() (int, error) {
	var max int
	err := r.db.QueryRow(`SELECT COALESCE(MAX(position), 0) FROM queue WHERE is_played = 0`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max position: %w", err)
	}
	return max, nil
}

// UpdatePositions assigns new positions in one transaction. The map keys are
// entry IDs; missing entries are left untouched.
func (r *QueueRepository) UpdatePositions(positions map[string]int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE queue SET position = ? WHERE id = ? AND is_played = 0`)
	if err != nil {
		return fmt.Errorf("failed to prepare position update: %w", err)
	}
	defer stmt.Close()

	for id, position := range positions {
		if _, err := stmt.Exec(position, id); err != nil {
			return fmt.Errorf("failed to update position for %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// MarkPlayed flips an unplayed entry to played with the given timestamp.
// Returns [shared.ErrNotFound] when the entry was already played or
// removed, which is what the losing side of a remove/advance race sees.
func (r *QueueRepository) MarkPlayed(id string, playedAt time.Time) error {
	result, err := r.db.Exec(`UPDATE queue SET is_played = 1, played_at = ? WHERE id = ? AND is_played = 0`, playedAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry played: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrNotFound
	}

	return nil
}

// DeleteUnplayedBySongID removes the unplayed entry for a song.
// Returns [shared.ErrNotFound] when no unplayed entry matches.
func (r *QueueRepository) DeleteUnplayedBySongID(songID string) error {
	result, err := r.db.Exec(`DELETE FROM queue WHERE song_id = ? AND is_played = 0`, songID)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrNotFound
	}

	return nil
}

// Delete removes an entry by its generated ID regardless of played state.
func (r *QueueRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrNotFound
	}

	return nil
}

// ClearUnplayed deletes every unplayed entry and returns the number removed.
// Played rows are untouched.
func (r *QueueRepository) ClearUnplayed() (int, error) {
	result, err := r.db.Exec(`DELETE FROM queue WHERE is_played = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear queue: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// Stats aggregates the derived queue statistics from the unplayed set.
func (r *QueueRepository) Stats() (models.QueueStats, error) {
	var stats models.QueueStats
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(duration), 0),
			COALESCE(SUM(CASE WHEN added_by = 'yours' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN added_by = 'crush' THEN 1 ELSE 0 END), 0)
		FROM queue
		WHERE is_played = 0
	`
	err := r.db.QueryRow(query).Scan(&stats.TotalSongs, &stats.TotalDuration, &stats.AddedByYours, &stats.AddedByCrush)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate queue stats: %w", err)
	}
	return stats, nil
}

type queueScanner interface {
	Scan(dest ...any) error
}

func scanQueueEntry(s queueScanner) (*models.QueueEntry, error) {
	var (
		entry      models.QueueEntry
		album      sql.NullString
		albumArt   sql.NullString
		previewURL sql.NullString
		spotifyURL sql.NullString
		playedAt   sql.NullTime
	)

	err := s.Scan(
		&entry.EntryID,
		&entry.Song.SongID,
		&entry.Song.SongName,
		&entry.Song.Artist,
		&album,
		&albumArt,
		&previewURL,
		&spotifyURL,
		&entry.Song.Duration,
		&entry.AddedBy,
		&entry.AddedAt,
		&entry.Position,
		&entry.Played,
		&playedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Song.Album = album.String
	entry.Song.AlbumArt = albumArt.String
	entry.Song.PreviewURL = previewURL.String
	entry.Song.SpotifyURL = spotifyURL.String
	if playedAt.Valid {
		entry.PlayedAt = &playedAt.Time
	}

	return &entry, nil
}

// scanOne scans a single [sql.Row] into a [models.QueueEntry]
func (r *QueueRepository) scanOne(row *sql.Row) (*models.QueueEntry, error) {
	entry, err := scanQueueEntry(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue entry: %w", err)
	}
	return entry, nil
}

// scanRow scans a row from [sql.Rows] into a [models.QueueEntry]
func (r *QueueRepository) scanRow(rows *sql.Rows) (*models.QueueEntry, error) {
	entry, err := scanQueueEntry(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan queue entry: %w", err)
	}
	return entry, nil
}
