package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/realtime"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/shared"
)

// QueueService owns every mutation of the shared queue and the now-playing
// slot. A single mutex serializes mutations so position renumbering is never
// interleaved; reads go straight to the repository.
//
// After each successful mutation the service broadcasts the full refreshed
// queue, so clients converge on identical state regardless of event order.
type QueueService struct {
	mu          sync.Mutex
	queue       *repositories.QueueRepository
	history     *repositories.HistoryRepository
	current     *repositories.CurrentSongRepository
	catalog     Catalog
	broadcaster Broadcaster
	logger      *log.Logger
}

// NewQueueService creates a QueueService over the given repositories.
// The broadcaster may be nil; mutations then skip event emission.
func NewQueueService(
	queue *repositories.QueueRepository,
	history *repositories.HistoryRepository,
	current *repositories.CurrentSongRepository,
	catalog Catalog,
	broadcaster Broadcaster,
	logger *log.Logger,
) *QueueService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &QueueService{
		queue:       queue,
		history:     history,
		current:     current,
		catalog:     catalog,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// List returns the unplayed queue in position order.
func (s *QueueService) List() ([]*models.QueueEntry, error) {
	return s.queue.ListUnplayed()
}

// Stats returns the derived statistics of the unplayed queue.
func (s *QueueService) Stats() (models.QueueStats, error) {
	return s.queue.Stats()
}

// History returns the most recently played songs, newest first.
func (s *QueueService) History(limit int) ([]*models.HistoryEntry, error) {
	return s.history.Recent(limit)
}

// Add appends a song to the tail of the queue.
//
// At most one unplayed entry may exist per song: when the song is already
// queued the existing entry is returned alongside [shared.ErrConflict] so
// the caller can surface it without a second lookup.
func (s *QueueService) Add(song models.Song, addedBy models.Identity) (*models.QueueEntry, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if !addedBy.Valid() {
		return nil, fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, addedBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.queue.GetUnplayedBySongID(song.SongID)
	if err == nil {
		return existing, shared.ErrConflict
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check queue for song: %w", err)
	}

	max, err := s.queue.MaxUnplayedPosition()
	if err != nil {
		return nil, err
	}

	entry := models.NewQueueEntry(song, addedBy, max+1)
	if err := s.queue.Create(entry); err != nil {
		return nil, err
	}

	s.logger.Info("song added to queue", "song", song.SongName, "by", addedBy, "position", entry.Position)
	s.emitQueue(realtime.QueueUpdatedPayload{Action: ActionAdd, AddedBy: addedBy})

	return entry, nil
}

// Remove deletes the unplayed entry for a song and closes the position gap.
func (s *QueueService) Remove(songID string, removedBy models.Identity) error {
	if !removedBy.Valid() {
		return fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, removedBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.queue.DeleteUnplayedBySongID(songID); err != nil {
		return err
	}

	if err := s.renumber(); err != nil {
		return err
	}

	s.logger.Info("song removed from queue", "songId", songID, "by", removedBy)
	s.emitQueue(realtime.QueueUpdatedPayload{Action: ActionRemove, RemovedBy: removedBy})

	return nil
}

// Reorder rearranges the unplayed queue to match the given song ID order.
//
// IDs not present in the queue are skipped, and queued songs missing from
// the list keep their relative order after the listed ones. Either way the
// result is renumbered to a dense 1..N sequence.
func (s *QueueService) Reorder(songIDs []string, reorderedBy models.Identity) error {
	if !reorderedBy.Valid() {
		return fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, reorderedBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.queue.ListUnplayed()
	if err != nil {
		return err
	}

	bySong := make(map[string]*models.QueueEntry, len(entries))
	for _, entry := range entries {
		bySong[entry.Song.SongID] = entry
	}

	positions := make(map[string]int, len(entries))
	next := 1
	seen := make(map[string]bool, len(songIDs))
	for _, songID := range songIDs {
		entry, ok := bySong[songID]
		if !ok || seen[songID] {
			continue
		}
		seen[songID] = true
		positions[entry.ID()] = next
		next++
	}

	// Unlisted entries keep their relative order at the tail.
	for _, entry := range entries {
		if !seen[entry.Song.SongID] {
			positions[entry.ID()] = next
			next++
		}
	}

	if err := s.queue.UpdatePositions(positions); err != nil {
		return err
	}

	s.logger.Info("queue reordered", "songs", len(positions), "by", reorderedBy)
	s.emitQueue(realtime.QueueUpdatedPayload{Action: ActionReorder, ReorderedBy: reorderedBy})

	return nil
}

// Shuffle randomly permutes the unplayed queue.
// Returns [shared.ErrInvalidOperation] when fewer than two songs are queued.
func (s *QueueService) Shuffle(shuffledBy models.Identity) error {
	if !shuffledBy.Valid() {
		return fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, shuffledBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.queue.ListUnplayed()
	if err != nil {
		return err
	}

	if len(entries) < 2 {
		return fmt.Errorf("%w: need at least two songs to shuffle", shared.ErrInvalidOperation)
	}

	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	positions := make(map[string]int, len(entries))
	for i, entry := range entries {
		positions[entry.ID()] = i + 1
	}

	if err := s.queue.UpdatePositions(positions); err != nil {
		return err
	}

	s.logger.Info("queue shuffled", "songs", len(entries), "by", shuffledBy)
	s.emitQueue(realtime.QueueUpdatedPayload{Action: ActionShuffle, ShuffledBy: shuffledBy})

	return nil
}

// Clear removes every unplayed song and reports how many were deleted.
// History and the now-playing slot survive.
func (s *QueueService) Clear(clearedBy models.Identity) (int, error) {
	if !clearedBy.Valid() {
		return 0, fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, clearedBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.queue.ClearUnplayed()
	if err != nil {
		return 0, err
	}

	s.logger.Info("queue cleared", "removed", deleted, "by", clearedBy)
	s.emitQueue(realtime.QueueUpdatedPayload{Action: ActionClear, ClearedBy: clearedBy, DeletedCount: deleted})

	return deleted, nil
}

// Advance pops the head of the queue: the entry is marked played, appended
// to history, promoted to now-playing, and the remainder renumbered.
//
// Returns the played entry and the new now-playing slot, or
// [shared.ErrEmptyQueue] when nothing is queued. A concurrent remove of
// the head surfaces as [shared.ErrNotFound].
func (s *QueueService) Advance(playedBy models.Identity) (*models.QueueEntry, *models.CurrentSong, error) {
	if !playedBy.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, playedBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.queue.ListUnplayed()
	if err != nil {
		return nil, nil, err
	}
	if len(entries) == 0 {
		return nil, nil, shared.ErrEmptyQueue
	}

	head := entries[0]
	playedAt := time.Now().UTC()

	if err := s.queue.MarkPlayed(head.ID(), playedAt); err != nil {
		return nil, nil, err
	}
	head.Played = true
	head.PlayedAt = &playedAt

	if err := s.history.Create(models.NewHistoryEntry(head, playedBy, playedAt)); err != nil {
		return nil, nil, err
	}

	positions := make(map[string]int, len(entries)-1)
	for i, entry := range entries[1:] {
		positions[entry.ID()] = i + 1
	}
	if err := s.queue.UpdatePositions(positions); err != nil {
		return nil, nil, err
	}

	nowPlaying := models.NewCurrentSong(head.Song, playedBy)
	if err := s.current.Create(nowPlaying); err != nil {
		return nil, nil, err
	}

	s.logger.Info("advanced to next song", "song", head.Song.SongName, "by", playedBy)
	s.emitQueue(realtime.QueueUpdatedPayload{
		Action:         ActionNext,
		PlayedBy:       playedBy,
		PlayedSong:     head,
		NewCurrentSong: nowPlaying,
	})
	s.emitSong(nowPlaying)

	return head, nowPlaying, nil
}

// Current returns the now-playing song, or [shared.ErrNotFound] when none
// has ever been selected.
func (s *QueueService) Current() (*models.CurrentSong, error) {
	return s.current.Latest()
}

// SetCurrent replaces the now-playing slot with the given song directly,
// bypassing the queue. Used when a listener picks a song to play on a whim.
func (s *QueueService) SetCurrent(song models.Song, chosenBy models.Identity) (*models.CurrentSong, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if !chosenBy.Valid() {
		return nil, fmt.Errorf("%w: unknown identity %q", shared.ErrInvalidInput, chosenBy)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nowPlaying := models.NewCurrentSong(song, chosenBy)
	if err := s.current.Create(nowPlaying); err != nil {
		return nil, err
	}

	s.logger.Info("current song set", "song", song.SongName, "by", chosenBy)
	s.emitSong(nowPlaying)

	return nowPlaying, nil
}

// SetCurrentFromCatalog looks a track up in the catalog and promotes it to
// now-playing in one step.
func (s *QueueService) SetCurrentFromCatalog(ctx context.Context, trackID string, chosenBy models.Identity) (*models.CurrentSong, error) {
	if s.catalog == nil {
		return nil, shared.ErrServiceUnavailable
	}

	song, err := s.catalog.Track(ctx, trackID)
	if err != nil {
		return nil, err
	}

	return s.SetCurrent(*song, chosenBy)
}

// Export snapshots the unplayed queue as a shareable playlist document.
func (s *QueueService) Export() (*models.QueueExport, error) {
	entries, err := s.queue.ListUnplayed()
	if err != nil {
		return nil, err
	}

	export := &models.QueueExport{
		ExportedAt: time.Now().UTC(),
		TotalSongs: len(entries),
		Playlist:   make([]models.ExportedSong, 0, len(entries)),
	}

	for _, entry := range entries {
		export.TotalDuration += entry.Song.Duration
		export.Playlist = append(export.Playlist, models.ExportedSong{
			Name:       entry.Song.SongName,
			Artist:     entry.Song.Artist,
			Album:      entry.Song.Album,
			SpotifyURL: entry.Song.SpotifyURL,
			Duration:   entry.Song.Duration,
			AddedBy:    entry.AddedBy,
			AddedAt:    entry.AddedAt,
		})
	}

	return export, nil
}

// renumber rewrites the unplayed set to dense 1..N positions.
// Callers must hold the mutex.
func (s *QueueService) renumber() error {
	entries, err := s.queue.ListUnplayed()
	if err != nil {
		return err
	}

	positions := make(map[string]int, len(entries))
	for i, entry := range entries {
		positions[entry.ID()] = i + 1
	}

	return s.queue.UpdatePositions(positions)
}

// emitQueue fills in the refreshed queue and broadcasts the event.
func (s *QueueService) emitQueue(payload realtime.QueueUpdatedPayload) {
	if s.broadcaster == nil {
		return
	}

	entries, err := s.queue.ListUnplayed()
	if err != nil {
		s.logger.Error("failed to load queue for broadcast", "error", err)
		return
	}

	payload.Queue = entries
	s.broadcaster.BroadcastQueueUpdated(payload)
}

func (s *QueueService) emitSong(song *models.CurrentSong) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastSongUpdated(song)
}
