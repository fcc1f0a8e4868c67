package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// QueueAPI defines the server operations the engine needs.
// The HTTP client implements it; tests substitute an in-memory fake.
type QueueAPI interface {
	History(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
	Add(ctx context.Context, song models.Song, addedBy models.Identity) (*models.QueueEntry, error)
	Export(ctx context.Context) (*models.QueueExport, error)
}

// QueueEngine defines the long-running queue operations.
type QueueEngine interface {
	// Refill re-queues played history oldest first.
	Refill(ctx context.Context, progress chan<- ProgressUpdate, opts RefillOpts) (*RefillResult, error)

	// ExportToFile writes the shareable playlist document to disk.
	ExportToFile(ctx context.Context, progress chan<- ProgressUpdate, path string) (*ExportResult, error)
}

// Engine implements [QueueEngine] against a queue server.
type Engine struct {
	api      QueueAPI
	identity models.Identity
	logger   *log.Logger
}

// NewEngine creates an Engine acting as the given identity.
func NewEngine(api QueueAPI, identity models.Identity, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Engine{
		api:      api,
		identity: identity,
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
