package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/wherebelong/belong/internal/formatter"
	"github.com/wherebelong/belong/internal/shared"
)

// SpotifySearch searches the Spotify catalog through the server proxy.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: a search query is required", shared.ErrMissingArgument)
	}

	r.logger.Infof("searching spotify for %q", query)

	songs, err := r.api.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		if errors.Is(err, shared.ErrServiceUnavailable) {
			return fmt.Errorf("%w: spotify is not configured on the server", shared.ErrServiceUnavailable)
		}
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.FormatSearchResults(songs))
}

// SpotifyFeatured shows tracks from Spotify's featured playlist.
func (r *Runner) SpotifyFeatured(ctx context.Context, cmd *cli.Command) error {
	songs, err := r.api.Featured(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("No featured tracks available right now\n")
	}

	r.writePlainHeader("Featured on Spotify")
	return r.writePlain("%s", formatter.FormatSearchResults(songs))
}
