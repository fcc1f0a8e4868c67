package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/shared"
)

// CacheStats shows how many tracks are cached locally.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openTrackCache(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	count, err := repo.Count()
	if err != nil {
		return fmt.Errorf("failed to count cached tracks: %w", err)
	}

	return r.writePlain("Cached tracks: %d\n", count)
}

// CacheClear drops every cached track.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openTrackCache(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	removed, err := repo.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear track cache: %w", err)
	}

	return r.writePlain("✓ Removed %d cached tracks\n", removed)
}

func (r *Runner) openTrackCache(cmd *cli.Command) (*repositories.TrackCacheRepository, func(), error) {
	config := r.loadConfig(cmd)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewTrackCacheRepository(db), func() { db.Close() }, nil
}
