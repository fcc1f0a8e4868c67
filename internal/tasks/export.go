package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// ExportResult summarizes an export-to-file run.
type ExportResult struct {
	Path   string
	Export *models.QueueExport
}

// ExportToFile fetches the shareable playlist document and writes it to
// disk as indented JSON. An empty path defaults to a timestamped file
// in the working directory.
func (e *Engine) ExportToFile(ctx context.Context, progress chan<- ProgressUpdate, path string) (*ExportResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: queue API not initialized", shared.ErrServiceUnavailable)
	}

	if path == "" {
		path = fmt.Sprintf("our-playlist-%d.json", time.Now().Unix())
	}

	e.sendProgress(progress, fetchExportUpdate())

	export, err := e.api.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch export: %w", err)
	}

	data, err := shared.MarshalJSON(export, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	e.sendProgress(progress, writeExportUpdate(path, export))
	e.logger.Info("playlist exported", "path", path, "songs", export.TotalSongs)

	return &ExportResult{Path: path, Export: export}, nil
}
