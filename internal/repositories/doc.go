// Package repositories implements SQLite persistence for the queue engine.
//
// The package owns the QueueEntry and HistoryEntry tables (the queue store)
// and the current_song table (the now-playing slot). Callers outside this
// package never touch *sql.DB directly.
//
// Key Implementations:
//   - [QueueRepository] : ordered unplayed entries with dense positions, plus played rows awaiting nothing
//   - [HistoryRepository] : append-only snapshots written by the advance operation
//   - [CurrentSongRepository] : versioned now-playing rows, latest wins
//   - [TrackCacheRepository] : last-seen catalog metadata from Spotify search
//
// History rows carry a sequence number generated by [NextSequence] so two
// snapshots played in the same timestamp tick still order deterministically.
package repositories
