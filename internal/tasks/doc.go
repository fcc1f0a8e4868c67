// Package tasks orchestrates long-running queue operations with real-time progress reporting.
//
// # Core Operations
//
// The [QueueEngine] interface defines two operations:
//
//  1. [QueueEngine.Refill] : Re-queue played history
//     - Fetches the most recently played songs
//     - Re-adds them oldest first, preserving the original play order
//     - Rate limits the re-adds so the server is never hammered
//     - Skips songs that are already queued again
//
//  2. [QueueEngine.ExportToFile] : Write the shareable playlist document
//     - Fetches the export snapshot from the server
//     - Writes it to disk as JSON
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
