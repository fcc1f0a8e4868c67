package ui

import (
	"github.com/wherebelong/belong/internal/client"
	"github.com/wherebelong/belong/internal/models"
)

// queueLoadedMsg carries a fresh queue snapshot fetched over HTTP.
type queueLoadedMsg struct {
	state *client.QueueState
	err   error
}

// currentLoadedMsg carries the now-playing slot fetched over HTTP.
type currentLoadedMsg struct {
	current *models.CurrentSong
	err     error
}

// historyLoadedMsg carries recently played songs.
type historyLoadedMsg struct {
	entries []*models.HistoryEntry
	err     error
}

// searchResultsMsg carries catalog tracks matching the last query.
type searchResultsMsg struct {
	songs []models.Song
	err   error
}

// actionDoneMsg reports the outcome of a queue mutation.
type actionDoneMsg struct {
	status string
	err    error
}

// queueEventMsg is a queueUpdated push from the server.
type queueEventMsg struct {
	action string
	queue  []*models.QueueEntry
}

// songEventMsg is a songUpdated push from the server.
type songEventMsg struct {
	song *models.CurrentSong
}
