package services

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/realtime"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/shared"
)

// recordingBroadcaster captures emitted events for assertions.
type recordingBroadcaster struct {
	payloads []realtime.QueueUpdatedPayload
	songs    []*models.CurrentSong
	messages []*models.Message
}

func (b *recordingBroadcaster) BroadcastQueueUpdated(payload realtime.QueueUpdatedPayload) {
	b.payloads = append(b.payloads, payload)
}

func (b *recordingBroadcaster) BroadcastSongUpdated(song *models.CurrentSong) {
	b.songs = append(b.songs, song)
}

func (b *recordingBroadcaster) BroadcastNewMessage(message *models.Message) {
	b.messages = append(b.messages, message)
}

func (b *recordingBroadcaster) last() realtime.QueueUpdatedPayload {
	if len(b.payloads) == 0 {
		return realtime.QueueUpdatedPayload{}
	}
	return b.payloads[len(b.payloads)-1]
}

func (b *recordingBroadcaster) lastAction() string {
	return b.last().Action
}

func setupService(t *testing.T) (*QueueService, *recordingBroadcaster, *sql.DB) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	broadcaster := &recordingBroadcaster{}
	service := NewQueueService(
		repositories.NewQueueRepository(db),
		repositories.NewHistoryRepository(db),
		repositories.NewCurrentSongRepository(db),
		nil,
		broadcaster,
		nil,
	)

	return service, broadcaster, db
}

func song(id, name string) models.Song {
	return models.Song{
		SongID:   id,
		SongName: name,
		Artist:   "Artist " + id,
		Album:    "Album",
		Duration: 180000,
	}
}

// assertDense verifies the unplayed queue holds exactly these song IDs in
// order with positions 1..N.
func assertDense(t *testing.T, service *QueueService, songIDs ...string) {
	t.Helper()

	entries, err := service.List()
	if err != nil {
		t.Fatalf("failed to list queue: %v", err)
	}

	if len(entries) != len(songIDs) {
		t.Fatalf("expected %d entries, got %d", len(songIDs), len(entries))
	}

	for i, entry := range entries {
		if entry.Song.SongID != songIDs[i] {
			t.Errorf("expected song %s at index %d, got %s", songIDs[i], i, entry.Song.SongID)
		}
		if entry.Position != i+1 {
			t.Errorf("expected position %d for %s, got %d", i+1, entry.Song.SongID, entry.Position)
		}
	}
}

func TestQueueServiceAdd(t *testing.T) {
	t.Run("Appends At Tail", func(t *testing.T) {
		service, broadcaster, _ := setupService(t)

		for _, id := range []string{"a", "b", "c"} {
			if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
				t.Fatalf("failed to add song: %v", err)
			}
		}

		assertDense(t, service, "a", "b", "c")

		if broadcaster.lastAction() != ActionAdd {
			t.Errorf("expected add event, got %q", broadcaster.lastAction())
		}
		if broadcaster.last().AddedBy != models.IdentityYours {
			t.Errorf("expected add event to carry the adder, got %q", broadcaster.last().AddedBy)
		}
	})

	t.Run("Duplicate Returns Existing And Conflict", func(t *testing.T) {
		service, broadcaster, _ := setupService(t)

		first, err := service.Add(song("a", "Song A"), models.IdentityYours)
		if err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		events := len(broadcaster.payloads)

		existing, err := service.Add(song("a", "Song A"), models.IdentityCrush)
		if !errors.Is(err, shared.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}

		if existing == nil || existing.ID() != first.ID() {
			t.Error("conflict should return the existing entry")
		}

		if existing.AddedBy != models.IdentityYours {
			t.Errorf("existing entry should keep original adder, got %s", existing.AddedBy)
		}

		if len(broadcaster.payloads) != events {
			t.Error("rejected add should not broadcast")
		}

		assertDense(t, service, "a")
	})

	t.Run("Readd After Played Is Allowed", func(t *testing.T) {
		service, _, _ := setupService(t)

		if _, err := service.Add(song("a", "Song A"), models.IdentityYours); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
		if _, _, err := service.Advance(models.IdentityYours); err != nil {
			t.Fatalf("failed to advance: %v", err)
		}

		if _, err := service.Add(song("a", "Song A"), models.IdentityCrush); err != nil {
			t.Fatalf("re-add after play should succeed: %v", err)
		}

		assertDense(t, service, "a")
	})

	t.Run("Rejects Invalid Input", func(t *testing.T) {
		service, _, _ := setupService(t)

		if _, err := service.Add(models.Song{SongID: "a"}, models.IdentityYours); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for incomplete song, got %v", err)
		}

		if _, err := service.Add(song("a", "Song A"), models.Identity("stranger")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown identity, got %v", err)
		}
	})

	t.Run("Surfaces Duplicate Lookup Failure", func(t *testing.T) {
		service, _, db := setupService(t)

		// With the database gone the duplicate check itself errors; that
		// must surface instead of being mistaken for "not queued yet".
		db.Close()

		_, err := service.Add(song("a", "Song A"), models.IdentityYours)
		if err == nil {
			t.Fatal("expected an error from a closed database")
		}
		if errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("lookup failure must not map to a domain error, got %v", err)
		}
		if !strings.Contains(err.Error(), "failed to check queue for song") {
			t.Errorf("expected the duplicate-check error to propagate, got %v", err)
		}
	})
}

func TestQueueServiceRemove(t *testing.T) {
	t.Run("Closes Position Gap", func(t *testing.T) {
		service, broadcaster, _ := setupService(t)

		for _, id := range []string{"a", "b", "c"} {
			if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
				t.Fatalf("failed to add song: %v", err)
			}
		}

		if err := service.Remove("b", models.IdentityCrush); err != nil {
			t.Fatalf("failed to remove song: %v", err)
		}

		assertDense(t, service, "a", "c")

		if broadcaster.lastAction() != ActionRemove {
			t.Errorf("expected remove event, got %q", broadcaster.lastAction())
		}
		if broadcaster.last().RemovedBy != models.IdentityCrush {
			t.Errorf("expected remove event to carry the remover, got %q", broadcaster.last().RemovedBy)
		}
	})

	t.Run("Missing Song", func(t *testing.T) {
		service, _, _ := setupService(t)

		if err := service.Remove("ghost", models.IdentityYours); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Rejects Unknown Identity", func(t *testing.T) {
		service, _, _ := setupService(t)

		if err := service.Remove("a", models.Identity("stranger")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestQueueServiceReorder(t *testing.T) {
	t.Run("Applies Given Order", func(t *testing.T) {
		service, broadcaster, _ := setupService(t)

		for _, id := range []string{"a", "b", "c"} {
			if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
				t.Fatalf("failed to add song: %v", err)
			}
		}

		if err := service.Reorder([]string{"c", "a", "b"}, models.IdentityYours); err != nil {
			t.Fatalf("failed to reorder: %v", err)
		}

		assertDense(t, service, "c", "a", "b")

		if broadcaster.lastAction() != ActionReorder {
			t.Errorf("expected reorder event, got %q", broadcaster.lastAction())
		}
		if broadcaster.last().ReorderedBy != models.IdentityYours {
			t.Errorf("expected reorder event to carry the actor, got %q", broadcaster.last().ReorderedBy)
		}
	})

	t.Run("Skips Unknown And Keeps Unlisted", func(t *testing.T) {
		service, _, _ := setupService(t)

		for _, id := range []string{"a", "b", "c"} {
			if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
				t.Fatalf("failed to add song: %v", err)
			}
		}

		// "ghost" is not queued and "a" is missing from the list.
		if err := service.Reorder([]string{"c", "ghost", "b"}, models.IdentityCrush); err != nil {
			t.Fatalf("failed to reorder: %v", err)
		}

		assertDense(t, service, "c", "b", "a")
	})

	t.Run("Rejects Unknown Identity", func(t *testing.T) {
		service, _, _ := setupService(t)

		if err := service.Reorder([]string{"a"}, models.Identity("stranger")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestQueueServiceShuffle(t *testing.T) {
	t.Run("Permutes And Stays Dense", func(t *testing.T) {
		service, broadcaster, _ := setupService(t)

		ids := []string{"a", "b", "c", "d", "e"}
		for _, id := range ids {
			if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
				t.Fatalf("failed to add song: %v", err)
			}
		}

		if err := service.Shuffle(models.IdentityCrush); err != nil {
			t.Fatalf("failed to shuffle: %v", err)
		}

		entries, err := service.List()
		if err != nil {
			t.Fatalf("failed to list queue: %v", err)
		}

		if len(entries) != len(ids) {
			t.Fatalf("shuffle changed queue size: %d", len(entries))
		}

		seen := make(map[string]bool)
		for i, entry := range entries {
			seen[entry.Song.SongID] = true
			if entry.Position != i+1 {
				t.Errorf("expected position %d, got %d", i+1, entry.Position)
			}
		}
		for _, id := range ids {
			if !seen[id] {
				t.Errorf("song %s lost during shuffle", id)
			}
		}

		if broadcaster.lastAction() != ActionShuffle {
			t.Errorf("expected shuffle event, got %q", broadcaster.lastAction())
		}
		if broadcaster.last().ShuffledBy != models.IdentityCrush {
			t.Errorf("expected shuffle event to carry the actor, got %q", broadcaster.last().ShuffledBy)
		}
	})

	t.Run("Rejects Fewer Than Two Songs", func(t *testing.T) {
		service, _, _ := setupService(t)

		if err := service.Shuffle(models.IdentityYours); !errors.Is(err, shared.ErrInvalidOperation) {
			t.Errorf("expected ErrInvalidOperation for empty queue, got %v", err)
		}

		if _, err := service.Add(song("a", "Song A"), models.IdentityYours); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		if err := service.Shuffle(models.IdentityYours); !errors.Is(err, shared.ErrInvalidOperation) {
			t.Errorf("expected ErrInvalidOperation for single song, got %v", err)
		}
	})
}

func TestQueueServiceAdvance(t *testing.T) {
	t.Run("Pops Head Into History And Now Playing", func(t *testing.T) {
		service, broadcaster, _ := setupService(t)

		for _, id := range []string{"a", "b", "c"} {
			if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
				t.Fatalf("failed to add song: %v", err)
			}
		}

		played, nowPlaying, err := service.Advance(models.IdentityCrush)
		if err != nil {
			t.Fatalf("failed to advance: %v", err)
		}

		if played.Song.SongID != "a" {
			t.Errorf("expected head song a, got %s", played.Song.SongID)
		}
		if !played.Played || played.PlayedAt == nil {
			t.Error("advanced entry should be marked played")
		}
		if nowPlaying == nil || nowPlaying.Song.SongID != "a" {
			t.Error("advance should return the new now-playing slot")
		}

		assertDense(t, service, "b", "c")

		history, err := service.History(10)
		if err != nil {
			t.Fatalf("failed to fetch history: %v", err)
		}
		if len(history) != 1 || history[0].Song.SongID != "a" {
			t.Fatalf("expected history [a], got %d entries", len(history))
		}
		if history[0].PlayedBy != models.IdentityCrush {
			t.Errorf("expected playedBy crush, got %s", history[0].PlayedBy)
		}
		if history[0].OriginalAddedBy != models.IdentityYours {
			t.Errorf("expected originalAddedBy yours, got %s", history[0].OriginalAddedBy)
		}

		current, err := service.Current()
		if err != nil {
			t.Fatalf("failed to fetch current song: %v", err)
		}
		if current.Song.SongID != "a" {
			t.Errorf("expected current song a, got %s", current.Song.SongID)
		}

		if broadcaster.lastAction() != ActionNext {
			t.Errorf("expected next event, got %q", broadcaster.lastAction())
		}
		event := broadcaster.last()
		if event.PlayedBy != models.IdentityCrush {
			t.Errorf("expected next event to carry the player, got %q", event.PlayedBy)
		}
		if event.PlayedSong == nil || event.PlayedSong.Song.SongID != "a" {
			t.Error("next event should carry the played song")
		}
		if event.NewCurrentSong == nil || event.NewCurrentSong.Song.SongID != "a" {
			t.Error("next event should carry the new now-playing slot")
		}
		if len(broadcaster.songs) != 1 {
			t.Fatalf("expected one songUpdated event, got %d", len(broadcaster.songs))
		}
	})

	t.Run("Empty Queue", func(t *testing.T) {
		service, _, _ := setupService(t)

		if _, _, err := service.Advance(models.IdentityYours); !errors.Is(err, shared.ErrEmptyQueue) {
			t.Errorf("expected ErrEmptyQueue, got %v", err)
		}
	})

	t.Run("Drains In Position Order", func(t *testing.T) {
		service, _, _ := setupService(t)

		for _, id := range []string{"a", "b", "c"} {
			if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
				t.Fatalf("failed to add song: %v", err)
			}
		}

		var order []string
		for {
			played, _, err := service.Advance(models.IdentityYours)
			if errors.Is(err, shared.ErrEmptyQueue) {
				break
			}
			if err != nil {
				t.Fatalf("failed to advance: %v", err)
			}
			order = append(order, played.Song.SongID)
		}

		if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
			t.Errorf("expected drain order [a b c], got %v", order)
		}
	})
}

func TestQueueServiceClear(t *testing.T) {
	service, broadcaster, _ := setupService(t)

	for _, id := range []string{"a", "b"} {
		if _, err := service.Add(song(id, "Song "+id), models.IdentityYours); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
	}
	if _, _, err := service.Advance(models.IdentityYours); err != nil {
		t.Fatalf("failed to advance: %v", err)
	}

	deleted, err := service.Clear(models.IdentityCrush)
	if err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted entry, got %d", deleted)
	}

	assertDense(t, service)

	// History and now-playing survive a clear.
	history, err := service.History(10)
	if err != nil {
		t.Fatalf("failed to fetch history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected history to survive clear, got %d entries", len(history))
	}

	if _, err := service.Current(); err != nil {
		t.Errorf("expected current song to survive clear: %v", err)
	}

	if broadcaster.lastAction() != ActionClear {
		t.Errorf("expected clear event, got %q", broadcaster.lastAction())
	}
	if broadcaster.last().ClearedBy != models.IdentityCrush {
		t.Errorf("expected clear event to carry the actor, got %q", broadcaster.last().ClearedBy)
	}
	if broadcaster.last().DeletedCount != 1 {
		t.Errorf("expected clear event to carry the deleted count, got %d", broadcaster.last().DeletedCount)
	}
}

func TestQueueServiceStats(t *testing.T) {
	service, _, _ := setupService(t)

	if _, err := service.Add(song("a", "Song A"), models.IdentityYours); err != nil {
		t.Fatalf("failed to add song: %v", err)
	}
	if _, err := service.Add(song("b", "Song B"), models.IdentityCrush); err != nil {
		t.Fatalf("failed to add song: %v", err)
	}

	stats, err := service.Stats()
	if err != nil {
		t.Fatalf("failed to fetch stats: %v", err)
	}

	if stats.TotalSongs != 2 || stats.TotalDuration != 360000 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.AddedByYours != 1 || stats.AddedByCrush != 1 {
		t.Errorf("unexpected split: %+v", stats)
	}
}

func TestQueueServiceSetCurrent(t *testing.T) {
	service, broadcaster, _ := setupService(t)

	current, err := service.SetCurrent(song("a", "Song A"), models.IdentityCrush)
	if err != nil {
		t.Fatalf("failed to set current song: %v", err)
	}

	if current.ChosenBy != models.IdentityCrush {
		t.Errorf("expected chosenBy crush, got %s", current.ChosenBy)
	}

	fetched, err := service.Current()
	if err != nil {
		t.Fatalf("failed to fetch current song: %v", err)
	}
	if fetched.Song.SongID != "a" {
		t.Errorf("expected current song a, got %s", fetched.Song.SongID)
	}

	if len(broadcaster.songs) != 1 {
		t.Errorf("expected one songUpdated event, got %d", len(broadcaster.songs))
	}
}

func TestQueueServiceExport(t *testing.T) {
	service, _, _ := setupService(t)

	if _, err := service.Add(song("a", "Song A"), models.IdentityYours); err != nil {
		t.Fatalf("failed to add song: %v", err)
	}
	if _, err := service.Add(song("b", "Song B"), models.IdentityCrush); err != nil {
		t.Fatalf("failed to add song: %v", err)
	}

	export, err := service.Export()
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	if export.TotalSongs != 2 || export.TotalDuration != 360000 {
		t.Errorf("unexpected export totals: %+v", export)
	}
	if len(export.Playlist) != 2 {
		t.Fatalf("expected 2 exported songs, got %d", len(export.Playlist))
	}
	if export.Playlist[0].Name != "Song A" || export.Playlist[0].AddedBy != models.IdentityYours {
		t.Errorf("unexpected first exported song: %+v", export.Playlist[0])
	}
	if export.ExportedAt.IsZero() {
		t.Error("export timestamp should be set")
	}
}
