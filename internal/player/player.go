// Package player drives local playback of the shared queue.
//
// Real audio comes from 30-second preview clips when a song has one.
// Songs without a preview are played as a simulated countdown over the
// full track duration, so the queue still advances on a shared rhythm.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
)

// RepeatMode controls what happens when playback reaches the end.
type RepeatMode string

const (
	RepeatNone  RepeatMode = "none"
	RepeatQueue RepeatMode = "queue"
	RepeatSong  RepeatMode = "song"
)

// Valid reports whether the mode is one of the defined values.
func (m RepeatMode) Valid() bool {
	return m == RepeatNone || m == RepeatQueue || m == RepeatSong
}

// Settings are the listener's playback preferences.
type Settings struct {
	AutoPlay   bool       `json:"autoPlay"`
	RepeatMode RepeatMode `json:"repeatMode"`
}

// State is the playback state machine's current phase.
type State string

const (
	StateIdle             State = "idle"
	StateLoading          State = "loading"
	StatePlayingPreview   State = "playingPreview"
	StatePlayingSimulated State = "playingSimulated"
	StatePaused           State = "paused"
	StateEnded            State = "ended"
)

// Media plays actual audio. Implementations wrap whatever audio output
// the client has; a nil Media falls back to simulation for every song.
type Media interface {
	// Play starts audio for the song. The returned channel is closed
	// when playback ends naturally.
	Play(song models.Song) (<-chan struct{}, error)
	Pause() error
	Resume() error
	Stop() error
}

// QueueAPI is the slice of the server client the controller needs.
type QueueAPI interface {
	Next(ctx context.Context, playedBy models.Identity) (*models.QueueEntry, error)
	History(ctx context.Context, limit int) ([]*models.HistoryEntry, error)
	Add(ctx context.Context, song models.Song, addedBy models.Identity) (*models.QueueEntry, error)
}

const (
	defaultTick        = 500 * time.Millisecond
	defaultRefillLimit = 10
	advanceTimeout     = 10 * time.Second
)

// Controller is the client-side playback state machine.
//
// All transitions run under one mutex. Whatever drove the previous
// state (simulation ticker or media watcher) is cancelled before the
// next state starts, so at most one driver goroutine is ever live.
type Controller struct {
	api         QueueAPI
	media       Media
	identity    models.Identity
	logger      *log.Logger
	tick        time.Duration
	refillLimit int

	mu       sync.Mutex
	settings Settings
	state    State
	song     *models.Song
	elapsed  time.Duration
	cancel   context.CancelFunc
	driver   sync.WaitGroup
	done     <-chan struct{}
	gen      int
}

// NewController creates a controller in the idle state with auto-play
// on and repeat off, matching the defaults listeners expect.
func NewController(api QueueAPI, media Media, identity models.Identity, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Controller{
		api:         api,
		media:       media,
		identity:    identity,
		logger:      logger,
		tick:        defaultTick,
		refillLimit: defaultRefillLimit,
		settings:    Settings{AutoPlay: true, RepeatMode: RepeatNone},
		state:       StateIdle,
	}
}

// Settings returns the current playback preferences.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// SetSettings replaces the playback preferences.
func (c *Controller) SetSettings(settings Settings) error {
	if !settings.RepeatMode.Valid() {
		return fmt.Errorf("%w: unknown repeat mode %q", shared.ErrInvalidInput, settings.RepeatMode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
	return nil
}

// State returns the current playback phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NowPlaying returns the current song and elapsed playback time.
func (c *Controller) NowPlaying() (*models.Song, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.song, c.elapsed
}

// Play starts playback of the given song, stopping whatever was
// playing. Preview audio is preferred; songs without audio fall back
// to a simulated countdown over the track duration.
func (c *Controller) Play(song models.Song) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.state = StateLoading
	c.song = &song
	c.elapsed = 0

	if c.media != nil && song.PreviewURL != "" {
		done, err := c.media.Play(song)
		if err == nil {
			c.state = StatePlayingPreview
			c.done = done
			c.watchLocked(done)
			return nil
		}
		c.logger.Warn("preview playback failed, falling back to simulation", "song", song.SongName, "error", err)
	}

	if song.Duration <= 0 {
		c.state = StateIdle
		c.song = nil
		return fmt.Errorf("%w: no audio available for %q", shared.ErrInvalidOperation, song.SongName)
	}

	c.state = StatePlayingSimulated
	c.simulateLocked()
	return nil
}

// Pause suspends playback, keeping the position.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlayingPreview && c.state != StatePlayingSimulated {
		return fmt.Errorf("%w: nothing is playing", shared.ErrInvalidOperation)
	}

	if c.state == StatePlayingPreview && c.media != nil {
		if err := c.media.Pause(); err != nil {
			return err
		}
	}

	c.stopDriverLocked()
	c.state = StatePaused
	return nil
}

// Resume continues paused playback.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return fmt.Errorf("%w: playback is not paused", shared.ErrInvalidOperation)
	}

	if c.media != nil && c.song != nil && c.song.PreviewURL != "" && c.done != nil {
		if err := c.media.Resume(); err == nil {
			c.state = StatePlayingPreview
			// Media keeps its own position; the watcher was cancelled by
			// Pause, so re-arm it on the original done channel.
			c.watchLocked(c.done)
			return nil
		}
	}

	c.state = StatePlayingSimulated
	c.simulateLocked()
	return nil
}

// Stop ends playback and returns to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.state = StateIdle
	c.song = nil
	c.elapsed = 0
}

// TogglePlayback pauses when playing, resumes when paused, and starts
// the next queued song after playback has ended. In Idle and Loading
// nothing is playing yet, so the toggle has no effect.
func (c *Controller) TogglePlayback(ctx context.Context) error {
	switch c.State() {
	case StatePlayingPreview, StatePlayingSimulated:
		return c.Pause()
	case StatePaused:
		return c.Resume()
	case StateEnded:
		return c.PlayNext(ctx)
	default:
		return nil
	}
}

// PlayNext advances the shared queue and plays the song it yields.
//
// When the queue is empty and repeat mode is "queue", the most recently
// played songs are re-queued oldest first before advancing again.
func (c *Controller) PlayNext(ctx context.Context) error {
	entry, err := c.api.Next(ctx, c.identity)
	if errors.Is(err, shared.ErrEmptyQueue) || errors.Is(err, shared.ErrNotFound) {
		if c.Settings().RepeatMode != RepeatQueue {
			c.mu.Lock()
			c.teardownLocked()
			c.state = StateEnded
			c.mu.Unlock()
			return err
		}

		if err := c.refill(ctx); err != nil {
			return err
		}

		entry, err = c.api.Next(ctx, c.identity)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return c.Play(entry.Song)
}

// refill re-queues played history oldest first.
func (c *Controller) refill(ctx context.Context) error {
	history, err := c.api.History(ctx, c.refillLimit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return shared.ErrEmptyQueue
	}

	// History arrives newest first; replay it in original play order.
	for i := len(history) - 1; i >= 0; i-- {
		_, err := c.api.Add(ctx, history[i].Song, c.identity)
		if err != nil && !errors.Is(err, shared.ErrConflict) {
			return err
		}
	}

	c.logger.Info("refilled queue from history", "songs", len(history))
	return nil
}

// handleEnd runs when playback finishes naturally. The generation the
// driver was started under guards against a stale goroutine ending a
// newer playback.
func (c *Controller) handleEnd(gen int) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	song := c.song
	settings := c.settings
	c.stopDriverLocked()
	c.state = StateEnded
	c.mu.Unlock()

	if settings.RepeatMode == RepeatSong && song != nil {
		if err := c.Play(*song); err != nil {
			c.logger.Error("failed to repeat song", "error", err)
		}
		return
	}

	if !settings.AutoPlay {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), advanceTimeout)
	defer cancel()

	if err := c.PlayNext(ctx); err != nil && !errors.Is(err, shared.ErrEmptyQueue) && !errors.Is(err, shared.ErrNotFound) {
		c.logger.Error("failed to auto-advance", "error", err)
	}
}

// simulateLocked starts the countdown driver. Caller holds the mutex.
func (c *Controller) simulateLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	gen := c.gen

	duration := time.Duration(c.song.Duration) * time.Millisecond

	c.driver.Add(1)
	go func() {
		defer c.driver.Done()

		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.gen != gen || c.state != StatePlayingSimulated {
					c.mu.Unlock()
					return
				}
				c.elapsed += c.tick
				finished := c.elapsed >= duration
				c.mu.Unlock()

				if finished {
					c.handleEnd(gen)
					return
				}
			}
		}
	}()
}

// watchLocked waits for media playback to end. Caller holds the mutex.
func (c *Controller) watchLocked(done <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	gen := c.gen

	c.driver.Add(1)
	go func() {
		defer c.driver.Done()

		select {
		case <-ctx.Done():
		case <-done:
			c.handleEnd(gen)
		}
	}()
}

// stopDriverLocked cancels the active driver goroutine without waiting.
// Bumping the generation makes any tick or end signal already in flight
// from the old driver a no-op.
func (c *Controller) stopDriverLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

// teardownLocked stops the driver and any media playback.
func (c *Controller) teardownLocked() {
	c.stopDriverLocked()
	if c.media != nil && (c.state == StatePlayingPreview || c.state == StatePaused) {
		c.media.Stop()
	}
}
