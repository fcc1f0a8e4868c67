// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a live view of the shared queue:
//  1. [QueueView] : Browse the queue, advance, shuffle, and remove songs
//  2. [SearchView] : Search the Spotify catalog and add tracks
//  3. [HistoryView] : Review what has already been played
//  4. [ConfirmClearView] : Confirm before wiping the queue
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Server pushes arrive over a websocket [client.Listener] whose events are pumped
// into the update loop through a channel, so every connected terminal converges
// on the same queue without polling.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
