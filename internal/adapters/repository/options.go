package repository

import "time"

const defaultMaxOpenConns = 10

// options holds settings shared by both backends.
type options struct {
	now          func() time.Time
	maxOpenConns int
}

func defaultOptions() options {
	return options{now: time.Now, maxOpenConns: defaultMaxOpenConns}
}

// Option applies a configuration option to a backend.
type Option func(*options)

// WithClock replaces time.Now as the source of created_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMaxOpenConns sizes the SQL pool. SQLite always uses one connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}
