package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

var (
	_ list.Item = queueItem{}
	_ list.Item = songItem{}
	_ list.Item = historyItem{}
)

// queueItem wraps [models.QueueEntry] to implement [list.Item].
type queueItem struct {
	entry *models.QueueEntry
}

func (i queueItem) FilterValue() string { return i.entry.Song.SongName }
func (i queueItem) Title() string {
	return fmt.Sprintf("%d. %s", i.entry.Position, i.entry.Song.SongName)
}
func (i queueItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.entry.Song.Artist, shared.FormatDuration(i.entry.Song.Duration))
	return fmt.Sprintf("%s • added by %s", desc, i.entry.AddedBy)
}

// songItem wraps a catalog [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

func (i songItem) FilterValue() string { return i.song.SongName }
func (i songItem) Title() string       { return i.song.SongName }
func (i songItem) Description() string {
	desc := i.song.Artist
	if i.song.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Album)
	}
	return fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.song.Duration))
}

// historyItem wraps [models.HistoryEntry] to implement [list.Item].
type historyItem struct {
	entry *models.HistoryEntry
}

func (i historyItem) FilterValue() string { return i.entry.Song.SongName }
func (i historyItem) Title() string       { return i.entry.Song.SongName }
func (i historyItem) Description() string {
	return fmt.Sprintf("%s • played by %s at %s",
		i.entry.Song.Artist, i.entry.PlayedBy, i.entry.PlayedAt.Local().Format("Jan 2 15:04"))
}
