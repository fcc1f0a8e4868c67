package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/wherebelong/belong/internal/formatter"
	"github.com/wherebelong/belong/internal/shared"
)

// CurrentShow shows the now-playing song.
func (r *Runner) CurrentShow(ctx context.Context, cmd *cli.Command) error {
	current, err := r.api.Current(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(current, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.FormatCurrent(current))
}

// CurrentSet searches Spotify and promotes the best match to now-playing.
func (r *Runner) CurrentSet(ctx context.Context, cmd *cli.Command) error {
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

	current, err := r.api.SetCurrent(ctx, songs[0], r.identity)
	if err != nil {
		return err
	}

	return r.writePlain("♪ Now playing: %s - %s\n", current.Song.Artist, current.Song.SongName)
}
