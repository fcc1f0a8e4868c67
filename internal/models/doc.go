// Package models defines domain entities and persistence interfaces for the shared music queue service.
//
// The package contains two categories of types:
//
// 1. Wire/DTO types exchanged with clients and the Spotify proxy:
//   - [Song] : Catalog track metadata (title, artist, album art, preview URL)
//   - [QueueStats] : Derived totals recomputed from the unplayed set
//   - [QueueExport] : Downloadable snapshot of the unplayed queue
//
// 2. Persistent entities backed by SQLite:
//   - [QueueEntry] : An ordered queue item, unplayed until advanced
//   - [HistoryEntry] : Immutable snapshot written when an entry is advanced
//   - [CurrentSong] : One logical "now playing" row, versioned on every write
//
// All persistent entities implement the Model interface providing ID generation, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
