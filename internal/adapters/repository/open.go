package repository

import (
	"context"
	"fmt"
	"net/url"
)

// Kind selects a backend family.
type Kind string

const (
	KindSQL  Kind = "sql"
	KindFile Kind = "file"
)

// Settings describes which backend Open builds.
type Settings struct {
	Kind         Kind
	DatabaseURL  string
	ScoresFile   string
	MaxOpenConns int
}

// Open builds the backend named by settings. It returns a *StorageError when
// the backend is not configured or cannot be reached.
func Open(ctx context.Context, settings Settings, opts ...Option) (Backend, error) {
	if settings.MaxOpenConns > 0 {
		opts = append(opts, WithMaxOpenConns(settings.MaxOpenConns))
	}

	switch settings.Kind {
	case KindSQL, "":
		return OpenSQL(ctx, settings.DatabaseURL, opts...)
	case KindFile:
		return NewFileStore(settings.ScoresFile, opts...)
	default:
		return nil, wrap(string(settings.Kind), OpOpen, fmt.Errorf("%w: %q", ErrUnsupportedDriver, settings.Kind))
	}
}

// redact hides the password of a connection URL for logs and errors.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
