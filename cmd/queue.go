package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/wherebelong/belong/internal/formatter"
	"github.com/wherebelong/belong/internal/shared"
	"github.com/wherebelong/belong/internal/tasks"
)

// QueueList shows the unplayed queue in play order.
func (r *Runner) QueueList(ctx context.Context, cmd *cli.Command) error {
	state, err := r.api.Queue(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Our Queue")
	return r.writePlain("%s", formatter.FormatQueue(state.Queue, state.Stats))
}

// QueueAdd searches Spotify for the query and queues the best match.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: a search query is required", shared.ErrMissingArgument)
	}

	songs, err := r.api.Search(ctx, query, 1)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}

	song := songs[0]
	entry, err := r.api.Add(ctx, song, r.identity)
	if errors.Is(err, shared.ErrConflict) {
		if entry != nil {
			return r.writePlain("⚠ %s - %s is already queued at position %d\n", song.Artist, song.SongName, entry.Position)
		}
		return r.writePlain("⚠ %s - %s is already queued\n", song.Artist, song.SongName)
	}
	if err != nil {
		return err
	}

	return r.writePlain("✓ Added %s - %s at position %d\n", song.Artist, song.SongName, entry.Position)
}

// QueueRemove removes a song from the queue by its Spotify ID.
func (r *Runner) QueueRemove(ctx context.Context, cmd *cli.Command) error {
	songID := cmd.StringArg("songId")
	if songID == "" {
		return fmt.Errorf("%w: a song ID is required", shared.ErrMissingArgument)
	}

	if err := r.api.Remove(ctx, songID, r.identity); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return r.writePlain("Song %s is not in the queue\n", songID)
		}
		return err
	}

	return r.writePlain("✓ Removed %s from the queue\n", songID)
}

// QueueShuffle randomly reorders the queue.
func (r *Runner) QueueShuffle(ctx context.Context, cmd *cli.Command) error {
	state, err := r.api.Shuffle(ctx, r.identity)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidOperation) {
			return r.writePlain("Need at least two songs to shuffle\n")
		}
		return err
	}

	r.writePlain("✓ Queue shuffled\n\n")
	return r.writePlain("%s", formatter.FormatQueue(state.Queue, state.Stats))
}

// QueueNext advances to the next song.
func (r *Runner) QueueNext(ctx context.Context, cmd *cli.Command) error {
	entry, err := r.api.Next(ctx, r.identity)
	if err != nil {
		if errors.Is(err, shared.ErrEmptyQueue) {
			return r.writePlain("The queue is empty\n")
		}
		return err
	}

	return r.writePlain("♪ Now playing: %s - %s (added by %s)\n",
		entry.Song.Artist, entry.Song.SongName, entry.AddedBy)
}

// QueueClear removes every unplayed song.
func (r *Runner) QueueClear(ctx context.Context, cmd *cli.Command) error {
	deleted, err := r.api.Clear(ctx, r.identity)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Queue cleared (%d songs removed)\n", deleted)
}

// QueueHistory shows recently played songs, newest first.
func (r *Runner) QueueHistory(ctx context.Context, cmd *cli.Command) error {
	entries, err := r.api.History(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.FormatHistory(entries))
}

// QueueExport writes the queue as a shareable playlist document.
func (r *Runner) QueueExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	if format == "json" {
		result, err := r.engine.ExportToFile(ctx, nil, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Playlist exported to %s\n", result.Path)
		return r.writePlain("  Songs: %d\n", result.Export.TotalSongs)
	}

	export, err := r.api.Export(ctx)
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Playlist exported to %s\n", result.SongsFile)
		return r.writePlain("  Summary: %s\n", result.SummaryFile)
	case "markdown", "md":
		imageURL := r.coverImageURL(ctx)
		result, err := formatter.WriteMarkdownExport(export, output, imageURL)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Playlist exported to %s\n", result.Directory)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Playlist exported to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// coverImageURL picks album art for the export cover, if any song has one.
func (r *Runner) coverImageURL(ctx context.Context) string {
	state, err := r.api.Queue(ctx)
	if err != nil {
		return ""
	}
	for _, entry := range state.Queue {
		if entry.Song.AlbumArt != "" {
			return entry.Song.AlbumArt
		}
	}
	return ""
}

// QueueRefill re-queues played songs from history, oldest first.
func (r *Runner) QueueRefill(ctx context.Context, cmd *cli.Command) error {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("[%s] %s\n", update.Phase, update.Message)
		}
	}()

	result, err := r.engine.Refill(ctx, progress, tasks.RefillOpts{
		Limit: cmd.Int("limit"),
		Rate:  cmd.Float("rate"),
	})
	close(progress)
	<-done

	if err != nil {
		if errors.Is(err, shared.ErrEmptyQueue) {
			return r.writePlain("Nothing has been played yet, nothing to refill\n")
		}
		return err
	}

	r.writePlain("\n✓ Refill complete\n")
	r.writePlain("  Fetched: %d\n", result.Fetched)
	r.writePlain("  Queued: %d\n", result.Queued)
	if result.Skipped > 0 {
		r.writePlain("  Skipped (already queued): %d\n", result.Skipped)
	}

	return nil
}
