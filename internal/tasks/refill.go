package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/wherebelong/belong/internal/models"
	"github.com/wherebelong/belong/internal/shared"
	"golang.org/x/time/rate"
)

// RefillOpts contains configuration for a queue refill.
type RefillOpts struct {
	Limit int     // How far back into history to reach (default: 10)
	Rate  float64 // Re-adds per second (default: 2)
}

// RefillResult summarizes a refill run.
type RefillResult struct {
	Fetched int           // History entries considered
	Queued  int           // Songs re-added to the queue
	Skipped int           // Songs already queued
	Songs   []models.Song // Songs re-added, in queue order
}

// Refill re-queues the most recently played songs oldest first, so a
// looping queue replays in its original order.
//
// Re-adds are rate limited. Songs that are already queued count as
// skipped rather than failing the run.
func (e *Engine) Refill(ctx context.Context, progress chan<- ProgressUpdate, opts RefillOpts) (*RefillResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: queue API not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	if opts.Rate <= 0 {
		opts.Rate = 2.0
	}

	e.sendProgress(progress, fetchHistoryUpdate(opts.Limit))

	history, err := e.api.History(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	if len(history) == 0 {
		return nil, shared.ErrEmptyQueue
	}

	result := &RefillResult{Fetched: len(history)}
	limiter := rate.NewLimiter(rate.Limit(opts.Rate), 1)

	// History arrives newest first; walk it backwards to restore the
	// original play order.
	total := len(history)
	for i := total - 1; i >= 0; i-- {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		song := history[i].Song
		step := total - i

		_, err := e.api.Add(ctx, song, e.identity)
		if errors.Is(err, shared.ErrConflict) {
			result.Skipped++
			e.sendProgress(progress, requeueSkippedUpdate(step, total, song))
			continue
		}
		if err != nil {
			return result, fmt.Errorf("failed to re-queue %q: %w", song.SongName, err)
		}

		result.Queued++
		result.Songs = append(result.Songs, song)
		e.sendProgress(progress, requeueUpdate(step, total, song))
	}

	e.logger.Info("queue refilled", "queued", result.Queued, "skipped", result.Skipped)
	return result, nil
}
