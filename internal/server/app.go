package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wherebelong/belong/internal/realtime"
	"github.com/wherebelong/belong/internal/services"
	"github.com/wherebelong/belong/internal/shared"
)

// App is the assembled queue service: router, handlers, hub and the
// underlying [http.Server].
type App struct {
	router *BasicRouter
	hub    *realtime.Hub
	server *http.Server
	logger *log.Logger
}

// NewApp wires the handlers onto a router with the standard middleware
// stack. The catalog may be nil; catalog endpoints then answer 503.
func NewApp(cfg shared.ServerConfig, service *services.QueueService, messages *services.MessageService, catalog Catalog, hub *realtime.Hub, logger *log.Logger) *App {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(
		RecoverMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	router.Handler(NewQueueHandler(service))
	router.Handler(NewCurrentSongHandler(service))
	router.Handler(NewMessageHandler(messages))
	router.Handler(NewSpotifyHandler(catalog))
	router.Handler(NewWSHandler(hub, service, logger))
	router.Handle(http.MethodGet, "/api/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"clients": hub.ClientCount(),
			"time":    time.Now().UTC(),
		})
	}))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	return &App{
		router: router,
		hub:    hub,
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the assembled router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until the context is cancelled, then drains connections.
func (a *App) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	a.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return a.server.Shutdown(shutdownCtx)
}
