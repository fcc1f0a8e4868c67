package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/wherebelong/belong/internal/realtime"
	"github.com/wherebelong/belong/internal/repositories"
	"github.com/wherebelong/belong/internal/server"
	"github.com/wherebelong/belong/internal/services"
	"github.com/wherebelong/belong/internal/shared"
)

// Serve assembles and runs the queue server until interrupted.
//
// The server works without Spotify credentials; catalog endpoints then
// answer 503 while the queue itself stays usable.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = port
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	queueRepo := repositories.NewQueueRepository(db)
	historyRepo := repositories.NewHistoryRepository(db)
	currentRepo := repositories.NewCurrentSongRepository(db)
	cacheRepo := repositories.NewTrackCacheRepository(db)
	messageRepo := repositories.NewMessageRepository(db)

	var catalog server.Catalog
	var svcCatalog services.Catalog
	spotify, err := services.NewSpotifyCatalog(ctx, config.Credentials.Spotify, cacheRepo, r.logger)
	switch {
	case err == nil:
		catalog = spotify
		svcCatalog = spotify
	case errors.Is(err, shared.ErrMissingCredentials):
		r.logger.Warn("spotify credentials not configured, catalog endpoints disabled")
	default:
		return fmt.Errorf("failed to create spotify catalog: %w", err)
	}

	hub := realtime.NewHub(r.logger)
	service := services.NewQueueService(queueRepo, historyRepo, currentRepo, svcCatalog, hub, r.logger)
	messages := services.NewMessageService(messageRepo, hub, r.logger)
	app := server.NewApp(config.Server, service, messages, catalog, hub, r.logger)

	r.logger.Info("starting queue server", "host", config.Server.Host, "port", config.Server.Port)

	return app.Start(ctx)
}

// loadConfig resolves the effective config for a command invocation,
// preferring the --config flag over the runner's startup config.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	configPath := cmd.String("config")
	if configPath == "" || configPath == r.configPath {
		return r.config
	}

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Warn("config file not found, using defaults", "path", configPath)
		return r.config
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return r.config
	}

	r.configPath = configPath
	return config
}
