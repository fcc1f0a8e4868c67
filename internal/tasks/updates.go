package tasks

import (
	"fmt"

	"github.com/wherebelong/belong/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchHistory Phase = iota
	Requeue
	FetchExport
	WriteExport
)

func (p Phase) String() string {
	switch p {
	case FetchHistory:
		return "fetch_history"
	case Requeue:
		return "requeue"
	case FetchExport:
		return "fetch_export"
	case WriteExport:
		return "write_export"
	default:
		return ""
	}
}

func fetchHistoryUpdate(limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching the last %d played songs...", limit),
	}
}

func requeueUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Requeue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, song.Artist, song.SongName),
	}
}

func requeueSkippedUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Requeue,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s is already queued, skipping", step, total, song.SongName),
	}
}

func fetchExportUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchExport,
		Step:    1,
		Total:   2,
		Message: "Fetching playlist snapshot...",
	}
}

func writeExportUpdate(path string, export *models.QueueExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Wrote %d songs to %s", export.TotalSongs, path),
		Data:    export,
	}
}
