// Package dedupe rejects accidental repeat submissions.
package dedupe

import "time"

// Option applies a configuration option to the window deduper.
type Option func(*windowDeduper)

// WithWindow sets the lookback. Non-positive values keep the default.
func WithWindow(window time.Duration) Option {
	return func(d *windowDeduper) {
		if window > 0 {
			d.window = window
		}
	}
}

// WithClock replaces time.Now, letting tests simulate elapsed time.
func WithClock(now func() time.Time) Option {
	return func(d *windowDeduper) {
		if now != nil {
			d.now = now
		}
	}
}
