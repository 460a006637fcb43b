// Package repository defines the score storage contract and its backends.
//
// Two interchangeable backends satisfy Backend: SQLStore keeps records in a
// relational table (Postgres or SQLite through bun), FileStore keeps the
// whole collection as one JSON array in a single file. Every failure either
// of them reports is a *StorageError.
package repository

import (
	"context"
	"time"

	"github.com/okian/hiscore/internal/domain/model"
)

// Backend names reported by Backend.Name and used as metric labels.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
)

// Operation names carried by StorageError.Op.
const (
	OpOpen        = "open"
	OpAppend      = "append"
	OpQueryRecent = "query_recent"
	OpListAll     = "list_all"
	OpClose       = "close"
)

// Backend provides durable append/read access to score records.
type Backend interface {
	// Append assigns id and created_at, persists the record and returns it.
	Append(ctx context.Context, s model.NewScore) (model.ScoreRecord, error)

	// QueryRecent returns one record with the same player name and score
	// created at or after since, or nil when none exists.
	QueryRecent(ctx context.Context, playerName string, score int64, since time.Time) (*model.ScoreRecord, error)

	// ListAll returns every record in creation order.
	ListAll(ctx context.Context) ([]model.ScoreRecord, error)

	// Name identifies the backend technology.
	Name() string

	// Close releases connections or file handles.
	Close() error
}
