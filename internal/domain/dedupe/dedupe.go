// Package dedupe rejects accidental repeat submissions.
//
// A submission is a duplicate when the store already holds a record with the
// same player name and score created inside the lookback window. The check is
// delegated to the store so it holds across restarts and, for the relational
// backend, across processes.
package dedupe

import (
	"context"
	"time"

	"github.com/okian/hiscore/internal/domain/model"
)

// DefaultWindow is the lookback used when no option overrides it.
const DefaultWindow = 60 * time.Second

// RecentFinder looks up a record with identical name and score created at or
// after since. A nil record with nil error means none exists.
type RecentFinder interface {
	QueryRecent(ctx context.Context, playerName string, score int64, since time.Time) (*model.ScoreRecord, error)
}

// Deduper decides whether a normalized submission repeats a recent one.
type Deduper interface {
	// Duplicate reports whether s repeats a record inside the window. Errors
	// come from the underlying store unchanged.
	Duplicate(ctx context.Context, s model.NewScore) (bool, error)

	// Window returns the configured lookback.
	Window() time.Duration
}

// windowDeduper implements Deduper against a RecentFinder.
type windowDeduper struct {
	finder RecentFinder
	window time.Duration
	now    func() time.Time
}

// NewWindowDeduper creates a deduper reading from finder.
func NewWindowDeduper(finder RecentFinder, opts ...Option) Deduper {
	d := &windowDeduper{
		finder: finder,
		window: DefaultWindow,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Duplicate checks for a record with created_at >= now - window.
func (d *windowDeduper) Duplicate(ctx context.Context, s model.NewScore) (bool, error) {
	since := d.now().UTC().Add(-d.window)
	rec, err := d.finder.QueryRecent(ctx, s.PlayerName, s.Score, since)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Window returns the configured lookback.
func (d *windowDeduper) Window() time.Duration {
	return d.window
}
