package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/realtime"
	"github.com/wherebelong/belong/internal/shared"
)

// Listener consumes the server's realtime feed and invokes callbacks on
// each event. It reconnects with backoff; the server replays a full
// snapshot on every connect, so no resync bookkeeping is needed here.
type Listener struct {
	url    string
	logger *log.Logger

	// OnQueueUpdated fires for every queueUpdated event, including the
	// snapshot sent on connect (action "sync").
	OnQueueUpdated func(action string, queue []*models.QueueEntry)

	// OnSongUpdated fires when the now-playing slot changes.
	OnSongUpdated func(song *models.CurrentSong)

	// OnNewMessage fires when a wall message is posted.
	OnNewMessage func(message *models.Message)
}

// NewListener creates a listener for the given server base URL.
func NewListener(baseURL string, logger *log.Logger) *Listener {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws"

	return &Listener{
		url:    wsURL,
		logger: logger,
	}
}

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Run consumes events until the context is cancelled, reconnecting on
// any connection failure.
func (l *Listener) Run(ctx context.Context) error {
	backoff := reconnectMin

	for {
		connected, err := l.consume(ctx)
		if connected {
			backoff = reconnectMin
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("realtime connection lost", "error", err, "retry", backoff)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// consume holds one connection open and dispatches its events. The
// returned bool reports whether a connection was established at all.
func (l *Listener) consume(ctx context.Context) (bool, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, l.url, nil)
	cancel()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	l.logger.Info("connected to realtime feed", "url", l.url)

	// Unblock the read loop when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event realtime.Event
		if err := conn.ReadJSON(&event); err != nil {
			return true, err
		}
		l.dispatch(event)
	}
}

func (l *Listener) dispatch(event realtime.Event) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		l.logger.Error("failed to re-encode event payload", "type", event.Type, "error", err)
		return
	}

	switch event.Type {
	case realtime.EventQueueUpdated:
		if l.OnQueueUpdated == nil {
			return
		}
		var decoded realtime.QueueUpdatedPayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			l.logger.Error("malformed queueUpdated payload", "error", err)
			return
		}
		l.OnQueueUpdated(decoded.Action, decoded.Queue)

	case realtime.EventSongUpdated:
		if l.OnSongUpdated == nil {
			return
		}
		var decoded realtime.SongUpdatedPayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			l.logger.Error("malformed songUpdated payload", "error", err)
			return
		}
		l.OnSongUpdated(decoded.Song)

	case realtime.EventNewMessage:
		if l.OnNewMessage == nil {
			return
		}
		var decoded realtime.NewMessagePayload
		if err := json.Unmarshal(payload, &decoded); err != nil {
			l.logger.Error("malformed newMessage payload", "error", err)
			return
		}
		l.OnNewMessage(decoded.Message)

	default:
		l.logger.Debug("ignoring unknown event", "type", event.Type)
	}
}
